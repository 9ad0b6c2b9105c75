package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/sensemap/internal/apperr"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{apperr.NotFound("box", "b1"), "not_found"},
		{apperr.Invalidf("bad"), "invalid"},
		{fmt.Errorf("wrap: %w", apperr.ErrConflict), "conflict"},
		{errors.New("disk on fire"), "error"},
	}
	for _, tt := range tests {
		if got := Result(tt.err); got != tt.want {
			t.Errorf("Result(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestHandlerExposesOperations(t *testing.T) {
	Observe("test_op", time.Now(), nil)
	Observe("test_op", time.Now(), apperr.Invalidf("bad"))
	ObserveScope(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`sensemap_operations_total{op="test_op",result="ok"} 1`,
		`sensemap_operations_total{op="test_op",result="invalid"} 1`,
		`sensemap_operation_duration_seconds_count{op="test_op"} 2`,
		`sensemap_scope_objects_count`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
