package database

import (
	"testing"
	"time"

	"swachhconnect/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestIssueQuery(t *testing.T) {
	assert.Equal(t, bson.M{}, IssueQuery(models.IssueFilter{}))
	assert.Equal(t, bson.M{}, IssueQuery(models.IssueFilter{Status: "all"}))

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)
	got := IssueQuery(models.IssueFilter{
		Status:   models.StatusPending,
		Category: "drainage",
		UserID:   "u1",
		From:     from,
		To:       to,
	})
	assert.Equal(t, bson.M{
		"status":     "pending",
		"category":   "drainage",
		"user_id":    "u1",
		"created_at": bson.M{"$gte": from, "$lte": to},
	}, got)
}

func TestSearchPattern(t *testing.T) {
	assert.Equal(t, "", SearchPattern("   "))
	assert.Equal(t, ".*god[-_ ]*war.*", SearchPattern(" god  war "))
	assert.Equal(t, `.*\+91.*`, SearchPattern("+91"))
}

func TestCitizenQuery(t *testing.T) {
	assert.Equal(t, bson.M{"role": models.RoleCitizen}, CitizenQuery(""))

	regex := bson.M{"$regex": ".*65f1a2.*", "$options": "i"}
	assert.Equal(t, bson.M{
		"role": models.RoleCitizen,
		"$or": bson.A{
			bson.M{"first_name": regex},
			bson.M{"last_name": regex},
			bson.M{"phone": regex},
			bson.M{"email": regex},
			bson.M{"user_id": regex},
		},
	}, CitizenQuery(" 65f1a2 "))
}

func TestResolvedPercent(t *testing.T) {
	assert.Equal(t, 0.0, ResolvedPercent(0, 0))
	assert.InDelta(t, 58.33, ResolvedPercent(35, 60), 0.01)
}

func TestMonthlyPipelineStartsWithMatch(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := monthlyPipeline(since)
	assert.Len(t, p, 3)
	assert.Equal(t, "$match", p[0][0].Key)
	assert.Equal(t, "$sort", p[2][0].Key)
}
