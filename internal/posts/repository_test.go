package posts

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/apperror"
	"inkwell/internal/database"
)

var postRowColumns = []string{"id", "user_id", "title", "body", "published", "created_at", "updated_at"}

func newTestRepository(t *testing.T) (*Repository, database.Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := database.NewFromDB(db)
	return NewRepository(svc), svc, mock
}

func postRow(id, owner uuid.UUID, published bool, updatedAt any) *sqlmock.Rows {
	return sqlmock.NewRows(postRowColumns).
		AddRow(id.String(), owner.String(), "Hello", "World", published, time.Now().UTC(), updatedAt)
}

func TestRepositoryCreate(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	owner, id := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO posts (id, user_id, title, body, published, created_at)")).
		WithArgs(sqlmock.AnyArg(), owner, "Hello", "World", sqlmock.AnyArg()).
		WillReturnRows(postRow(id, owner, false, nil))

	post, err := repo.Create(context.Background(), owner, NewPost{Title: "Hello", Body: "World"})
	require.NoError(t, err)

	assert.Equal(t, id, post.ID)
	assert.Equal(t, owner, post.UserID)
	assert.False(t, post.Published)
	assert.Nil(t, post.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryFindByIDIsOwnerScoped(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	owner, stranger, id := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM posts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, stranger).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM posts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, owner).
		WillReturnRows(postRow(id, owner, false, nil))

	_, err := repo.FindByID(context.Background(), stranger, id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	post, err := repo.FindByID(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, id, post.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateBuildsPartialStatement(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	owner, id := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE posts SET title = \$1, updated_at = GREATEST\(\$2::timestamptz, COALESCE\(updated_at, created_at\) \+ INTERVAL '1 microsecond'\) WHERE id = \$3 AND user_id = \$4`).
		WithArgs("New title", sqlmock.AnyArg(), id, owner).
		WillReturnRows(postRow(id, owner, false, now))

	title := "New title"
	post, err := repo.Update(context.Background(), owner, id, Patch{Title: &title})
	require.NoError(t, err)
	require.NotNil(t, post.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateEmptyPatchStillTouches(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	owner, id := uuid.New(), uuid.New()

	mock.ExpectQuery(`UPDATE posts SET updated_at = GREATEST\(\$1::timestamptz`).
		WithArgs(sqlmock.AnyArg(), id, owner).
		WillReturnRows(postRow(id, owner, false, time.Now().UTC()))

	_, err := repo.Update(context.Background(), owner, id, Patch{})
	require.NoError(t, err)
}

func TestRepositoryUpdateNotOwned(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery("UPDATE posts").WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), uuid.New(), uuid.New(), Patch{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	owner, id := uuid.New(), uuid.New()

	mock.ExpectExec(`DELETE FROM posts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, owner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM posts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, owner).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), owner, id))
	assert.ErrorIs(t, repo.Delete(context.Background(), owner, id), apperror.ErrNotFound)
}

func TestRepositoryPublishTransition(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	owner, id := uuid.New(), uuid.New()

	mock.ExpectQuery(`UPDATE posts SET published = TRUE WHERE id = \$1 AND user_id = \$2 AND NOT published`).
		WithArgs(id, owner).
		WillReturnRows(postRow(id, owner, true, nil))

	post, changed, err := repo.Publish(context.Background(), owner, id)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, post.Published)
	assert.Nil(t, post.UpdatedAt)
}

func TestRepositoryPublishAlreadyPublished(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	owner, id := uuid.New(), uuid.New()

	mock.ExpectQuery(`UPDATE posts SET published = TRUE`).
		WithArgs(id, owner).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM posts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, owner).
		WillReturnRows(postRow(id, owner, true, nil))

	post, changed, err := repo.Publish(context.Background(), owner, id)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, post.Published)
}

func TestRepositoryPublishMissing(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(`UPDATE posts SET published = TRUE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM posts`).WillReturnError(sql.ErrNoRows)

	_, _, err := repo.Publish(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRepositoryListPublishedFiltersDrafts(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT .+ FROM posts WHERE published ORDER BY created_at, id`).
		WillReturnRows(postRow(uuid.New(), uuid.New(), true, nil))

	posts, err := repo.ListPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, posts[0].Published)
}

func TestRepositoryListByOwnerEmpty(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	owner := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM posts WHERE user_id = \$1 ORDER BY created_at, id`).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	posts, err := repo.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestRepositoryDeleteByOwner(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	owner, a, b := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`DELETE FROM posts WHERE user_id = \$1 RETURNING id`).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a.String()).AddRow(b.String()))

	ids, err := repo.DeleteByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
}
