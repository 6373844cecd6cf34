package pg

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mp3player/internal/app/model"
	"mp3player/internal/app/repository"
)

func TestNew_EmptyConnectionStringRejected(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

// The shared query implementation is covered in the repository package; this
// verifies the postgres wiring uses numbered placeholders and RETURNING.
func TestPostgresDialect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dao := &DB{CommonDB: repository.NewCommonDB(db, "postgres")}
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("RETURNING id")).
		WithArgs("ep01.mp3", "", "", 0.0, 0.0, 0.0, "openai", "", "",
			"hello", sqlmock.AnyArg(), 0, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	id, err := dao.Record(ctx, &model.Transcript{
		FileName: "ep01.mp3",
		Provider: "openai",
		Text:     "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	mock.ExpectQuery(regexp.QuoteMeta("file_name = $1")).
		WithArgs("ep01.mp3").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := dao.CheckIfFileProcessed(ctx, "ep01.mp3")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
