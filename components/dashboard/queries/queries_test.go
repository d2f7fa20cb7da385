package queries

import (
	"context"
	"testing"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
)

type stubPageService struct {
	calls int
	page  dashboard.Page
}

func (s *stubPageService) ConfigurePage(_ context.Context, _ dashboard.ViewerContext, page dashboard.Page) (dashboard.PageLayout, error) {
	s.calls++
	s.page = page
	return dashboard.PageLayout{Page: page}, nil
}

type stubWidgetService struct {
	calls int
}

func (s *stubWidgetService) ResolveWidget(_ context.Context, _ dashboard.ViewerContext, _ dashboard.Page, id string) (dashboard.WidgetInstance, error) {
	s.calls++
	return dashboard.WidgetInstance{ID: id}, nil
}

type stubFeed []notify.Notice

func (f stubFeed) Recent(limit int) []notify.Notice {
	if limit <= 0 || limit >= len(f) {
		return f
	}
	return f[len(f)-limit:]
}

func TestPageQuery(t *testing.T) {
	service := &stubPageService{}
	query := NewPageQuery(service)
	layout, err := query.Query(context.Background(), PageInput{Page: dashboard.PageCharts})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 || service.page != dashboard.PageCharts {
		t.Fatalf("expected one charts call, got %d (%s)", service.calls, service.page)
	}
	if layout.Page != dashboard.PageCharts {
		t.Fatalf("unexpected layout page %s", layout.Page)
	}
}

func TestWidgetQuery(t *testing.T) {
	service := &stubWidgetService{}
	query := NewWidgetQuery(service)
	inst, err := query.Query(context.Background(), WidgetInput{Page: dashboard.PagePerformance, WidgetID: "top-skus-table"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 || inst.ID != "top-skus-table" {
		t.Fatalf("unexpected widget %+v after %d calls", inst, service.calls)
	}
}

func TestNoticesQuery(t *testing.T) {
	feed := stubFeed{{Message: "a"}, {Message: "b"}, {Message: "c"}}
	notices, err := NewNoticesQuery(feed).Query(context.Background(), NoticesInput{Limit: 2})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(notices) != 2 || notices[0].Message != "b" {
		t.Fatalf("unexpected notices %+v", notices)
	}
}
