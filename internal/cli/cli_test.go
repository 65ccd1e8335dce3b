package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedzaid0/Library-project-sql/internal/cli"
)

func Test_SeedAndListBooks_RoundTrip(t *testing.T) {
	// arrange
	dbPath := givenDatabasePath(t)

	// act
	_, seedErr := runCommand(t, dbPath,
		"seed", "book", "--id", "b-1", "--title", "The Go Programming Language",
		"--category", "Programming", "--price", "4.50")
	output, listErr := runCommand(t, dbPath, "list", "books")

	// assert
	require.NoError(t, seedErr)
	require.NoError(t, listErr)
	assert.Contains(t, output, "The Go Programming Language")
	assert.Contains(t, output, "4.50")
	assert.Contains(t, output, "available")
}

func Test_IssueAndReturn_RoundTrip(t *testing.T) {
	// arrange
	dbPath := givenSeededDatabase(t)

	// act
	issueOutput, issueErr := runCommand(t, dbPath,
		"issue", "--book", "b-1", "--member", "m-1", "--employee", "e-1", "--id", "i-1")
	returnOutput, returnErr := runCommand(t, dbPath,
		"return", "--issue", "i-1", "--condition", "damaged")

	// assert
	require.NoError(t, issueErr)
	require.NoError(t, returnErr)
	assert.Contains(t, issueOutput, "issued")
	assert.Contains(t, returnOutput, "damaged")

	listOutput, listErr := runCommand(t, dbPath, "list", "issues")
	require.NoError(t, listErr)
	assert.Contains(t, listOutput, "returned")
}

func Test_Issue_Fails_WhenBookIsAlreadyOnLoan(t *testing.T) {
	// arrange
	dbPath := givenSeededDatabase(t)
	_, firstErr := runCommand(t, dbPath,
		"issue", "--book", "b-1", "--member", "m-1", "--employee", "e-1")
	require.NoError(t, firstErr)

	// act
	_, err := runCommand(t, dbPath,
		"issue", "--book", "b-1", "--member", "m-1", "--employee", "e-1")

	// assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already on loan")
}

func Test_Void_ReleasesTheBook(t *testing.T) {
	// arrange
	dbPath := givenSeededDatabase(t)
	_, issueErr := runCommand(t, dbPath,
		"issue", "--book", "b-1", "--member", "m-1", "--employee", "e-1", "--id", "i-1")
	require.NoError(t, issueErr)

	// act
	_, voidErr := runCommand(t, dbPath, "void", "i-1")

	// assert
	require.NoError(t, voidErr)

	output, listErr := runCommand(t, dbPath, "list", "books")
	require.NoError(t, listErr)
	assert.Contains(t, output, "available")
}

func Test_Report_WritesSnapshotEnvelope(t *testing.T) {
	// arrange
	dbPath := givenSeededDatabase(t)

	// act
	output, err := runCommand(t, dbPath, "report", "overdue")

	// assert: an empty ledger still yields a full snapshot envelope
	require.NoError(t, err)
	assert.Contains(t, output, `"report":"overdue_fines"`)
}

func Test_Report_HighRisk_RefusesMaterialize(t *testing.T) {
	// arrange
	dbPath := givenSeededDatabase(t)

	// act
	_, err := runCommand(t, dbPath, "report", "high-risk", "--materialize")

	// assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be materialized")
}

func Test_Import_LoadsValidRowsAndSkipsBrokenOnes(t *testing.T) {
	// arrange
	dbPath := givenDatabasePath(t)

	csvPath := filepath.Join(t.TempDir(), "books.csv")
	csvContent := "id,title,category,price\n" +
		"b-1,The Go Programming Language,Programming,4.50\n" +
		",Domain-Driven Design,Architecture,6.00\n" +
		"b-3,,Programming,1.00\n" +
		"b-4,Bad Price,Programming,not-a-number\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0o600))

	// act
	output, err := runCommand(t, dbPath, "import", csvPath)

	// assert
	require.NoError(t, err)
	assert.Contains(t, output, "imported 2 book(s), skipped 2")

	listOutput, listErr := runCommand(t, dbPath, "list", "books")
	require.NoError(t, listErr)
	assert.Contains(t, listOutput, "Domain-Driven Design")
}

func Test_Import_Fails_OnUnknownColumn(t *testing.T) {
	// arrange
	dbPath := givenDatabasePath(t)

	csvPath := filepath.Join(t.TempDir(), "books.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("title,isbn\nSome Book,123\n"), 0o600))

	// act
	_, err := runCommand(t, dbPath, "import", csvPath)

	// assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown CSV column")
}

/*** Test helpers ***/

func runCommand(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	command := cli.NewRootCommand()

	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&output)
	command.SetArgs(append(args, "--db", dbPath))

	err := command.Execute()

	return output.String(), err
}

func givenDatabasePath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "circulation.db")
}

func givenSeededDatabase(t *testing.T) string {
	t.Helper()

	dbPath := givenDatabasePath(t)

	seeds := [][]string{
		{"seed", "book", "--id", "b-1", "--title", "The Go Programming Language",
			"--category", "Programming", "--price", "4.50"},
		{"seed", "member", "--id", "m-1", "--name", "Ada Reader"},
		{"seed", "employee", "--id", "e-1", "--name", "Sam Clerk", "--branch", "br-1"},
	}

	for _, args := range seeds {
		_, err := runCommand(t, dbPath, args...)
		require.NoError(t, err)
	}

	return dbPath
}
