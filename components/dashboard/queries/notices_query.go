package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
)

// NoticesInput bounds how many recent notices to return.
type NoticesInput struct {
	Limit int
}

type noticeFeed interface {
	Recent(limit int) []notify.Notice
}

// NoticesQuery lists recent toast notices, oldest first.
type NoticesQuery struct {
	feed noticeFeed
}

// NewNoticesQuery builds the query.
func NewNoticesQuery(feed noticeFeed) *NoticesQuery {
	return &NoticesQuery{feed: feed}
}

var _ gocommand.Querier[NoticesInput, []notify.Notice] = (*NoticesQuery)(nil)

// Query returns the notices.
func (q *NoticesQuery) Query(_ context.Context, input NoticesInput) ([]notify.Notice, error) {
	return q.feed.Recent(input.Limit), nil
}
