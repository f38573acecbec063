package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserStoryComponentIDs(t *testing.T) {
	var story UserStory

	ids, err := story.GetComponentIDs()
	require.NoError(t, err)
	require.Nil(t, ids)

	require.NoError(t, story.SetComponentIDs([]string{"c1", "c2"}))
	ids, err = story.GetComponentIDs()
	require.NoError(t, err)
	require.Equal(t, []string{"c1", "c2"}, ids)

	story.ComponentIDs = "not json"
	_, err = story.GetComponentIDs()
	require.Error(t, err)
}

func TestNewSQLiteDBMigrates(t *testing.T) {
	db, err := NewSQLiteDB(":memory:")
	require.NoError(t, err)

	for _, model := range []interface{}{&Release{}, &Team{}, &Component{}, &UserStory{}} {
		require.True(t, db.Migrator().HasTable(model))
	}
}
