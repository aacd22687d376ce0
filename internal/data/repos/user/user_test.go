package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/tabula-backend/internal/data/db"
	"github.com/yungbote/tabula-backend/internal/data/repos/testutil"
	types "github.com/yungbote/tabula-backend/internal/domain"
	"github.com/yungbote/tabula-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	database := testutil.DB(t)
	tx := testutil.Tx(t, database)

	repo := NewUserRepo(database, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{
			Username:     "ada",
			Email:        "ada@example.com",
			PasswordHash: "pw",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: unexpected result: %+v", created)
	}

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(gotByIDs) != 1 || gotByIDs[0].Username != "ada" {
		t.Fatalf("GetByIDs: unexpected result: %+v", gotByIDs)
	}

	gotByNames, err := repo.GetByUsernames(dbc, []string{"ada"})
	if err != nil {
		t.Fatalf("GetByUsernames: %v", err)
	}
	if len(gotByNames) != 1 || gotByNames[0].ID != created[0].ID {
		t.Fatalf("GetByUsernames: unexpected result: %+v", gotByNames)
	}

	exists, err := repo.UsernameExists(dbc, "ada")
	if err != nil || !exists {
		t.Fatalf("UsernameExists: exists=%v err=%v", exists, err)
	}
	exists, err = repo.EmailExists(dbc, "ada@example.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}
	exists, err = repo.EmailExists(dbc, "nobody@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists (missing): exists=%v err=%v", exists, err)
	}
}

func TestUserRepoDuplicateUsername(t *testing.T) {
	database := testutil.DB(t)
	repo := NewUserRepo(database, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	if _, err := repo.Create(dbc, []*types.User{{Username: "ada", Email: "a@example.com", PasswordHash: "pw"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Create(dbc, []*types.User{{Username: "ada", Email: "b@example.com", PasswordHash: "pw"}})
	if err == nil {
		t.Fatalf("expected unique violation")
	}
	if !db.IsUniqueViolation(err) {
		t.Fatalf("expected IsUniqueViolation, got %v", err)
	}
}
