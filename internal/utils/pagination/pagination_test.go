package pagination

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, query string) (Pagination, error) {
	t.Helper()
	var (
		got    Pagination
		gotErr error
	)
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got, gotErr = ParseFromRequest(c)
		return nil
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	return got, gotErr
}

func TestParseFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantSize   int
		wantOffset int
		wantErr    bool
	}{
		{name: "defaults", query: "", wantPage: 0, wantSize: 10, wantOffset: 0},
		{name: "explicit", query: "?page=2&size=25", wantPage: 2, wantSize: 25, wantOffset: 50},
		{name: "upper bound", query: "?size=100", wantSize: 100},
		{name: "size too small", query: "?size=9", wantErr: true},
		{name: "size too large", query: "?size=101", wantErr: true},
		{name: "negative page", query: "?page=-1", wantErr: true},
		{name: "not a number", query: "?size=ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parse(t, tt.query)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.Size)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestResponse(t *testing.T) {
	body := Response(Pagination{Page: 1, Size: 10, Total: 21}, []string{"a"})

	meta := body["meta"].(fiber.Map)
	assert.Equal(t, int64(3), meta["total_pages"])
	assert.Equal(t, int64(21), meta["total_items"])
	assert.Equal(t, 1, meta["current_page"])
	assert.Equal(t, []string{"a"}, body["data"])
}
