package emulator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iankuys/c2c-survey-app/pkg/redcap"
)

// AddRoutes registers the API endpoint the way the records service exposes it: a single
// form-encoded POST target.
func (s *Store) AddRoutes(rg gin.IRoutes) {
	rg.POST("/", s.handleAPICall)
}

// Handler returns a standalone router serving the API at "/".
func (s *Store) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	s.AddRoutes(router)
	return router
}

func (s *Store) handleAPICall(c *gin.Context) {
	if c.PostForm("token") != s.token {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permissions to use the API"})
		return
	}
	if msg := s.failure(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if c.PostForm("format") != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only the json format is supported"})
		return
	}

	content := c.PostForm("content")
	action := c.DefaultPostForm("action", "export")

	switch {
	case content == "record" && action == "export":
		rows := s.exportRows(
			indexedFormValues(c, "records"),
			indexedFormValues(c, "fields"),
			indexedFormValues(c, "events"),
		)
		c.JSON(http.StatusOK, rows)
	case content == "record" && action == "import":
		s.handleImport(c)
	case content == "report":
		rows, ok := s.report(c.PostForm("report_id"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The report_id you provided is not valid"})
			return
		}
		c.JSON(http.StatusOK, rows)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported content/action: %s/%s", content, action)})
	}
}

func (s *Store) handleImport(c *gin.Context) {
	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(c.PostForm("data")), &raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The data being imported is not formatted correctly"})
		return
	}

	rows := make([]redcap.Record, 0, len(raw))
	for _, r := range raw {
		row := redcap.Record{}
		for k, v := range r {
			if v == nil {
				row[k] = ""
				continue
			}
			row[k] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}

	count, err := s.importRows(rows)
	if err != nil {
		slog.Debug("emulator rejected import", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func indexedFormValues(c *gin.Context, name string) []string {
	values := []string{}
	for i := 0; ; i++ {
		v, ok := c.GetPostForm(fmt.Sprintf("%s[%d]", name, i))
		if !ok {
			return values
		}
		values = append(values, v)
	}
}
