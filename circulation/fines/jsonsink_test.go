package fines_test

import (
	"bytes"
	"context"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedzaid0/Library-project-sql/circulation/fines"
)

func Test_JSONSink_WritesOneEnvelopePerReport(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	sink := fines.NewJSONSink(&buf)
	ctx := context.Background()

	// act
	require.NoError(t, sink.MaterializeOverdueFines(ctx, []fines.Assessment{
		{IssueID: "i-1", Overdue: true, DaysOverdue: 3, Fine: decimal.RequireFromString("1.50")},
	}))
	require.NoError(t, sink.MaterializeCategoryIncome(ctx, []fines.CategoryIncome{
		{Category: "Programming", Income: decimal.RequireFromString("9.00")},
	}))

	// assert
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first struct {
		Report      string `json:"report"`
		GeneratedAt string `json:"generated_at"`
	}
	require.NoError(t, jsoniter.Unmarshal(lines[0], &first))
	assert.Equal(t, "overdue_fines", first.Report)
	assert.NotEmpty(t, first.GeneratedAt)

	var second struct {
		Report string `json:"report"`
	}
	require.NoError(t, jsoniter.Unmarshal(lines[1], &second))
	assert.Equal(t, "rental_income_by_category", second.Report)
}

func Test_JSONSink_WritesEmptyRowsAsSnapshot(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	sink := fines.NewJSONSink(&buf)

	// act: an empty report is still a full replacement snapshot
	require.NoError(t, sink.MaterializeActiveMembers(context.Background(), nil))

	// assert
	assert.Contains(t, buf.String(), `"report":"active_members"`)
}
