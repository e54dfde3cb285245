package repository

import (
	"fmt"
	"testing"
	"time"

	"safechat-go/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestAlertAppendAndListRecent(t *testing.T) {
	repo := NewAlertRepository()

	for i := 1; i <= 4; i++ {
		repo.Append(model.Alert{
			Timestamp: time.Now(),
			Kind:      fmt.Sprintf("kind-%d", i),
			SessionID: "s1",
		})
	}

	recent := repo.ListRecent(2)
	assert.Len(t, recent, 2)
	assert.Equal(t, "kind-3", recent[0].Kind)
	assert.Equal(t, "kind-4", recent[1].Kind)
}

func TestAlertListRecentAll(t *testing.T) {
	repo := NewAlertRepository()
	repo.Append(model.Alert{Kind: "a"})
	repo.Append(model.Alert{Kind: "b"})

	// limit <= 0 或超过总数时返回全部
	assert.Len(t, repo.ListRecent(0), 2)
	assert.Len(t, repo.ListRecent(100), 2)
}

func TestAlertListRecentEmpty(t *testing.T) {
	repo := NewAlertRepository()
	assert.Empty(t, repo.ListRecent(10))
}
