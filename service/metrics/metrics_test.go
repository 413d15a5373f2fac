package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(MetricsServiceTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type MetricsServiceTestSuite struct {
	reg *prometheus.Registry
}

func (s *MetricsServiceTestSuite) SetUpTest(c *check.C) {
	s.reg = prometheus.NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "entityusage_test_total",
		Help: "Test counter",
	})
	c.Assert(s.reg.Register(counter), check.IsNil)
	counter.Add(3)
}

func (s *MetricsServiceTestSuite) TestConfigValidation(c *check.C) {
	originalConfig := Config{Gatherer: s.reg, ListenAddr: ":9090"}

	config := originalConfig
	c.Assert(config.validate(), check.IsNil)
	c.Assert(config.Path, check.Equals, defaultPath)
	c.Assert(config.Logger, check.Not(check.IsNil), check.Commentf("default logger was not assigned"))

	config = originalConfig
	config.Gatherer = nil
	c.Assert(config.validate(), check.ErrorMatches, "(?ms).*metrics gatherer not provided.*")

	config = originalConfig
	config.ListenAddr = ""
	c.Assert(config.validate(), check.ErrorMatches, "(?ms).*listen address not provided.*")
}

func (s *MetricsServiceTestSuite) TestMetricsEndpoint(c *check.C) {
	svc, err := New(Config{Gatherer: s.reg, ListenAddr: ":0"})
	c.Assert(err, check.IsNil)

	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	c.Assert(rec.Code, check.Equals, http.StatusOK)
	c.Assert(strings.Contains(rec.Body.String(), "entityusage_test_total 3"), check.Equals, true)
}

func (s *MetricsServiceTestSuite) TestHealthEndpoint(c *check.C) {
	svc, err := New(Config{Gatherer: s.reg, ListenAddr: ":0"})
	c.Assert(err, check.IsNil)

	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	c.Assert(rec.Code, check.Equals, http.StatusOK)
	body, _ := io.ReadAll(rec.Body)
	c.Assert(string(body), check.Equals, "OK")
}

func (s *MetricsServiceTestSuite) TestRunStopsOnCancel(c *check.C) {
	svc, err := New(Config{Gatherer: s.reg, ListenAddr: "127.0.0.1:0"})
	c.Assert(err, check.IsNil)

	ctx, cancelFn := context.WithTimeout(context.TODO(), 200*time.Millisecond)
	defer cancelFn()

	c.Assert(svc.Run(ctx), check.IsNil)
}
