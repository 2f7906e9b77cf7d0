package server

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/raphi011/wu/internal/github"
	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/render"
	"github.com/raphi011/wu/internal/writeup"
)

var templateFuncs = template.FuncMap{
	"size": writeup.FormatSize,
	"lower": func(b writeup.Badge) string {
		return strings.ToLower(string(b))
	},
}

// listResponse is the body of GET /api/writeups.
type listResponse struct {
	Items      []writeup.Item `json:"items"`
	Loading    bool           `json:"loading"`
	Refreshing bool           `json:"refreshing"`
	Failed     []string       `json:"failed,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type badgeCount struct {
	Badge writeup.Badge
	Count int
}

type categoryGroup struct {
	Category string
	Items    []writeup.Item
}

type indexPage struct {
	Repo       string
	Total      int
	Badges     []badgeCount
	Groups     []categoryGroup
	Loading    bool
	Refreshing bool
	Error      string
}

type writeupPage struct {
	Repo string
	Item writeup.Item
	Body template.HTML
	CSS  template.CSS
}

type errorPage struct {
	Repo    string
	Status  int
	Message string
}

func (s *Server) index(c *gin.Context) {
	st := s.cfg.Session.Snapshot()

	page := indexPage{
		Repo:       s.cfg.Repo,
		Total:      len(st.Items),
		Loading:    st.Loading,
		Refreshing: st.Refreshing,
	}
	if st.Err != nil {
		page.Error = st.Err.Error()
	}

	counts := writeup.Counts(st.Items)
	for _, b := range writeup.Badges {
		if counts[b] > 0 {
			page.Badges = append(page.Badges, badgeCount{Badge: b, Count: counts[b]})
		}
	}
	for _, cat := range writeup.Categories(st.Items) {
		page.Groups = append(page.Groups, categoryGroup{
			Category: cat,
			Items:    writeup.Filter(st.Items, "", cat),
		})
	}

	c.HTML(http.StatusOK, "index.html", page)
}

func (s *Server) list(c *gin.Context) {
	st := s.cfg.Session.Snapshot()

	var badge writeup.Badge
	if q := c.Query("badge"); q != "" {
		b, ok := writeup.ParseBadge(q)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown badge " + q})
			return
		}
		badge = b
	}

	items := writeup.Filter(st.Items, badge, c.Query("category"))
	if items == nil {
		items = []writeup.Item{}
	}

	resp := listResponse{
		Items:      items,
		Loading:    st.Loading,
		Refreshing: st.Refreshing,
		Failed:     st.Failed,
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) writeup(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")

	it, ok := s.cfg.Session.Find(path)
	if !ok {
		s.fail(c, http.StatusNotFound, "No writeup at "+path)
		return
	}

	text, err := s.cfg.Loader.Load(c.Request.Context(), it)
	if github.IsCancelled(err) {
		// client went away
		c.Abort()
		return
	}
	if err != nil {
		log.FromContext(s.ctx).Printf("load %s: %v\n", path, err)
		status := http.StatusBadGateway
		var remote *github.RemoteError
		if errors.As(err, &remote) && remote.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		s.fail(c, status, "Failed to load "+it.Title+": "+err.Error())
		return
	}

	body, err := render.HTML(text, render.WithCodeStyle(s.cfg.CodeStyle))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "Failed to render "+it.Title+": "+err.Error())
		return
	}

	c.HTML(http.StatusOK, "writeup.html", writeupPage{
		Repo: s.cfg.Repo,
		Item: it,
		Body: template.HTML(body),
		CSS:  s.css,
	})
}

func (s *Server) refresh(c *gin.Context) {
	gen := s.Refresh()
	c.JSON(http.StatusAccepted, gin.H{"generation": gen})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"items":     len(s.cfg.Session.Items()),
		"documents": s.cfg.Loader.Len(),
	})
}

func (s *Server) fail(c *gin.Context, status int, msg string) {
	c.HTML(status, "error.html", errorPage{Repo: s.cfg.Repo, Status: status, Message: msg})
}
