// Package session holds the browsing state shared by the terminal browser
// and the web server.
//
// A Session owns the merged writeup list and the collection generations
// that feed it. Every crawl runs under a generation number; results tagged
// with any other generation are dropped, so a superseded or cancelled crawl
// can never change what the user sees.
//
// A Viewer owns the document modal: which item is open, whether its
// content is loading, ready or failed, and the list position saved while
// the modal holds the scroll lock.
package session
