package status

import (
	"reflect"
	"testing"

	"github.com/jackzampolin/lectern/internal/store"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		statuses []store.ChapterStatus
		want     Summary
	}{
		{
			name:     "no chapters",
			statuses: nil,
			want:     Summary{Overall: OverallPending},
		},
		{
			name: "all pending",
			statuses: []store.ChapterStatus{
				store.StatusPending, store.StatusPending,
			},
			want: Summary{Total: 2, Pending: 2, Overall: OverallPending},
		},
		{
			name: "mixed progress",
			statuses: []store.ChapterStatus{
				store.StatusCompleted, store.StatusSummarized, store.StatusPending,
			},
			want: Summary{Total: 3, Completed: 1, Summarized: 1, Pending: 1, Overall: OverallInProgress},
		},
		{
			name: "summarized only",
			statuses: []store.ChapterStatus{
				store.StatusSummarized, store.StatusSummarized,
			},
			want: Summary{Total: 2, Summarized: 2, Overall: OverallInProgress},
		},
		{
			name: "all completed",
			statuses: []store.ChapterStatus{
				store.StatusCompleted, store.StatusCompleted, store.StatusCompleted,
			},
			want: Summary{Total: 3, Completed: 3, Overall: OverallCompleted},
		},
		{
			name: "unknown status counts as pending",
			statuses: []store.ChapterStatus{
				store.StatusCompleted, store.ChapterStatus("mystery"),
			},
			want: Summary{Total: 2, Completed: 1, Pending: 1, Overall: OverallInProgress},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.statuses)
			got.RecentEvents = nil
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Aggregate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
