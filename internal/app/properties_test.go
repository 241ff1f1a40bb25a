package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentfolio/pkg/domain"
)

func TestCreatePropertyHappyPath(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")

	p, err := a.CreateProperty(context.Background(), owner, loftInput())
	require.NoError(t, err)

	assert.Equal(t, owner.ID, p.OwnerID)
	assert.Equal(t, []string{"https://cdn/img1.jpg"}, p.Images)
	require.Len(t, p.Documents, 1)
	assert.Equal(t, "doc1.pdf", p.Documents[0].Name)
	assert.Equal(t, domain.DocPDF, p.Documents[0].Type)
}

func TestCreatePropertyValidation(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")

	in := loftInput()
	in.Title = ""
	in.Bedrooms = 0
	in.State = "Illinois"
	in.Images = nil

	_, err := a.CreateProperty(context.Background(), owner, in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	fields := make(map[string]bool)
	for _, f := range ve.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["bedrooms"])
	assert.True(t, fields["state"])
	assert.True(t, fields["images"])

	// Nothing was written.
	props, listErr := a.ListProperties(context.Background(), owner)
	require.NoError(t, listErr)
	assert.Empty(t, props)
}

func TestPropertyInputCoercesStringNumbers(t *testing.T) {
	raw := `{"title":"Loft","description":"d","price":"1500.50","bedrooms":"2","bathrooms":"1",
		"address":"1 Main St","city":"Springfield","state":"IL","zipCode":"62704",
		"images":["https://cdn/img1.jpg"],"documents":[]}`
	var in PropertyInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	assert.Equal(t, FlexFloat(1500.50), in.Price)
	assert.Equal(t, FlexInt(2), in.Bedrooms)
	assert.Equal(t, FlexInt(1), in.Bathrooms)
}

func TestUpdatePropertyDocumentRoundTrip(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")
	ctx := context.Background()

	p, err := a.CreateProperty(ctx, owner, loftInput())
	require.NoError(t, err)
	require.Len(t, p.Documents, 1)
	originalRowID := p.Documents[0].ID

	// Add a second document; the unchanged one keeps its row.
	in := loftInput()
	in.ID = p.ID
	in.Documents = []string{"https://cdn/doc1.pdf", "https://cdn/doc2.csv"}
	updated, err := a.UpdateProperty(ctx, owner, in)
	require.NoError(t, err)
	require.Len(t, updated.Documents, 2)
	byURL := make(map[string]domain.PropertyDocument)
	for _, d := range updated.Documents {
		byURL[d.URL] = d
	}
	assert.Equal(t, originalRowID, byURL["https://cdn/doc1.pdf"].ID)
	assert.Equal(t, domain.DocCSV, byURL["https://cdn/doc2.csv"].Type)

	// Empty desired set removes everything, fields stay intact.
	in.Documents = nil
	updated, err = a.UpdateProperty(ctx, owner, in)
	require.NoError(t, err)
	assert.Empty(t, updated.Documents)
	assert.Equal(t, "Loft", updated.Title)
}

func TestUpdatePropertyRequiresIDAndOwnership(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")
	other := testUser(t, st, "u2", "u2@example.com")
	ctx := context.Background()

	p, err := a.CreateProperty(ctx, owner, loftInput())
	require.NoError(t, err)

	in := loftInput()
	_, err = a.UpdateProperty(ctx, owner, in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	in.ID = p.ID
	_, err = a.UpdateProperty(ctx, other, in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePropertyOwnershipAndCascade(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")
	other := testUser(t, st, "u2", "u2@example.com")
	ctx := context.Background()

	p, err := a.CreateProperty(ctx, owner, loftInput())
	require.NoError(t, err)
	_, err = a.CreateExpense(ctx, owner, ExpenseInput{
		Date: "2024-01-15", Type: "EXPENSE", Amount: 50, PropertyID: p.ID,
	})
	require.NoError(t, err)

	// A non-owner delete fails closed and leaves the row.
	err = a.DeleteProperty(ctx, other, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := a.GetProperty(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	require.NoError(t, a.DeleteProperty(ctx, owner, p.ID))
	_, err = a.GetProperty(ctx, owner, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err := st.ListDocumentsByProperty(p.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
	expenses, err := st.ListExpensesByProperty(p.ID)
	require.NoError(t, err)
	assert.Empty(t, expenses)

	// Deleting again reports not found, not a crash.
	err = a.DeleteProperty(ctx, owner, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPropertyHidesForeignRows(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")
	other := testUser(t, st, "u2", "u2@example.com")
	ctx := context.Background()

	p, err := a.CreateProperty(ctx, owner, loftInput())
	require.NoError(t, err)

	_, err = a.GetProperty(ctx, other, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.GetProperty(ctx, other, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPropertyRefs(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")
	ctx := context.Background()

	_, err := a.CreateProperty(ctx, owner, loftInput())
	require.NoError(t, err)
	in := loftInput()
	in.Title = "Duplex"
	_, err = a.CreateProperty(ctx, owner, in)
	require.NoError(t, err)

	refs, err := a.ListPropertyRefs(ctx, owner)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	titles := []string{refs[0].Title, refs[1].Title}
	assert.ElementsMatch(t, []string{"Loft", "Duplex"}, titles)
	for _, ref := range refs {
		assert.NotEmpty(t, ref.ID)
	}
}
