package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "db", Healthy: true}
	sqlDB, err := c.db.DB()
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "redis", Healthy: true}
	if err := c.client.Ping(ctx).Err(); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

// UpstreamChecker probes another service's /health endpoint. The gateway
// uses one per backend to report aggregate platform health.
type UpstreamChecker struct {
	name   string
	url    string
	client *http.Client
}

func NewUpstreamChecker(name, baseURL string, client *http.Client) Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return &UpstreamChecker{name: name, url: baseURL + "/health", client: client}
}

func (c *UpstreamChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: c.name, Healthy: true}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	resp, err := c.client.Do(req)
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		res.Healthy = false
		res.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return res
}
