//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"reviewharvest/internal/domain"
	mysqlarc "reviewharvest/internal/storage/mysql"
)

func review(id, user, content string, score int, sec bool) domain.Review {
	return domain.Review{
		ReviewID:          id,
		UserName:          user,
		Content:           content,
		Score:             score,
		CreatedAt:         time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Platform:          domain.PlatformGoogle,
		FetchedAt:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		IsSecurityRelated: sec,
	}
}

func TestArchive_MySQL_UpsertAndQuery(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviewharvest",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/reviewharvest?parseTime=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	arc := mysqlarc.New(db)
	ctx := context.Background()

	if err := arc.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// Idempotent on an existing schema.
	if err := arc.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema (second): %v", err)
	}

	const appID = "com.example.app"
	r1 := review("gp:r1", "Ana", "love the privacy here", 5, true)
	r2 := review("gp:r2", "Bob", "nice colors", 4, false)
	if err := arc.UpsertReviews(ctx, appID, []domain.Review{r1, r2}); err != nil {
		t.Fatalf("UpsertReviews: %v", err)
	}

	// Re-running the same batch must not duplicate rows.
	r1.Content = "love the privacy here (edited)"
	if err := arc.UpsertReviews(ctx, appID, []domain.Review{r1, r2}); err != nil {
		t.Fatalf("UpsertReviews (re-run): %v", err)
	}

	n, err := arc.CountByApp(ctx, domain.PlatformGoogle, appID)
	if err != nil {
		t.Fatalf("CountByApp: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}

	got, err := arc.ListReviews(ctx, domain.PlatformGoogle, appID, 10)
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	byID := map[string]domain.Review{}
	for _, rv := range got {
		byID[rv.ReviewID] = rv
	}
	if rv, ok := byID["gp:r1"]; !ok || rv.Content != "love the privacy here (edited)" || !rv.IsSecurityRelated {
		t.Fatalf("upsert did not refresh row: %+v", rv)
	}
	if rv, ok := byID["gp:r2"]; !ok || rv.Score != 4 || rv.UserName != "Bob" {
		t.Fatalf("unexpected row: %+v", rv)
	}

	// Cross-platform scoping: same review id under apple is a distinct row.
	ap := review("gp:r1", "Cid", "apple copy", 3, false)
	ap.Platform = domain.PlatformApple
	if err := arc.UpsertReviews(ctx, "724596345", []domain.Review{ap}); err != nil {
		t.Fatalf("UpsertReviews (apple): %v", err)
	}
	if n, err := arc.CountByApp(ctx, domain.PlatformGoogle, appID); err != nil || n != 2 {
		t.Fatalf("google count changed: n=%d err=%v", n, err)
	}
	if n, err := arc.CountByApp(ctx, domain.PlatformApple, "724596345"); err != nil || n != 1 {
		t.Fatalf("apple count: n=%d err=%v", n, err)
	}
}
