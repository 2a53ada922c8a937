package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys["sql/migrations/"+name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func TestLoadMigrations_SortedPairs(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrations(migrationFS(map[string]string{
		"0002_ledger.up.sql":    "CREATE TABLE b (id INT);",
		"0002_ledger.down.sql":  "DROP TABLE b;",
		"0001_catalog.up.sql":   "CREATE TABLE a (id INT);",
		"0001_catalog.down.sql": "DROP TABLE a;",
	}))
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "catalog" || migrations[0].Down != "DROP TABLE a;" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Up != "CREATE TABLE b (id INT);" {
		t.Fatalf("unexpected second migration: %+v", migrations[1])
	}
}

func TestLoadMigrations_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "missing down",
			files: map[string]string{"0001_init.up.sql": "SELECT 1;"},
			want:  "both up and down",
		},
		{
			name:  "bad file name",
			files: map[string]string{"init.sql": "SELECT 1;"},
			want:  "invalid migration file name",
		},
		{
			name:  "empty body",
			files: map[string]string{"0001_init.up.sql": " \n", "0001_init.down.sql": "SELECT 1;"},
			want:  "is empty",
		},
		{
			name: "name mismatch",
			files: map[string]string{
				"0001_init.up.sql":    "SELECT 1;",
				"0001_other.down.sql": "SELECT 1;",
			},
			want: "two names",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := loadMigrations(migrationFS(tt.files))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMigrations_Embedded(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrations(embeddedMigrations)
	if err != nil {
		t.Fatalf("embedded migrations are invalid: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 embedded migrations, got %d", len(migrations))
	}
	if !strings.Contains(migrations[1].Up, "invoice_number_seq") {
		t.Fatal("ledger migration must create the invoice number sequence")
	}
}

func TestPlanMigrations(t *testing.T) {
	t.Parallel()

	all := []migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}

	up, err := planMigrations(all, map[int64]bool{1: true}, directionUp, 0)
	if err != nil {
		t.Fatalf("plan up: %v", err)
	}
	if len(up) != 2 || up[0].Version != 2 || up[1].Version != 3 {
		t.Fatalf("unexpected up plan: %+v", up)
	}

	one, _ := planMigrations(all, nil, directionUp, 1)
	if len(one) != 1 || one[0].Version != 1 {
		t.Fatalf("unexpected single-step plan: %+v", one)
	}

	down, err := planMigrations(all, map[int64]bool{1: true, 2: true}, directionDown, 5)
	if err != nil {
		t.Fatalf("plan down: %v", err)
	}
	if len(down) != 2 || down[0].Version != 2 || down[1].Version != 1 {
		t.Fatalf("unexpected down plan: %+v", down)
	}

	if _, err := planMigrations(all, map[int64]bool{9: true}, directionDown, 1); err == nil {
		t.Fatal("expected error for unknown applied version")
	}
	if _, err := planMigrations(all, nil, direction("sideways"), 0); err == nil {
		t.Fatal("expected error for unsupported direction")
	}
}
