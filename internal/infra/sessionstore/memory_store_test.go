package sessionstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	"github.com/yanqian/appliance-assistant/internal/infra/sessionstore"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sessionstore.NewMemoryStore(10, time.Hour)
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

	session := flow.NewSession(now)
	session.Flow = flow.StateIssueListing
	session.Appliance = &appliance.Appliance{Brand: "Samsung", Model: "RF28", ApplianceType: "Refrigerator"}
	session.AddMessage(flow.RoleAssistant, "Great! I've identified your Refrigerator.", now)
	session.CommonIssues = []string{"Not cooling"}
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, session.ID, loaded.ID)
	require.Equal(t, flow.StateIssueListing, loaded.Flow)
	require.Equal(t, "RF28", loaded.Appliance.Model)
	require.Equal(t, session.Messages, loaded.Messages)
	require.Equal(t, session.CommonIssues, loaded.CommonIssues)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sessionstore.NewMemoryStore(10, time.Hour)
	session := flow.NewSession(time.Now())
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	loaded.Flow = flow.StateBooking
	loaded.ProblemDescription = "Leaking"

	again, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, flow.StateCategorySelection, again.Flow)
	require.Empty(t, again.ProblemDescription)
}

func TestMemoryStoreMissingAndDeleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sessionstore.NewMemoryStore(10, time.Hour)

	_, err := store.Get(ctx, "missing")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	session := flow.NewSession(time.Now())
	require.NoError(t, store.Save(ctx, session))
	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sessionstore.NewMemoryStore(2, time.Hour)

	first := flow.NewSession(time.Now())
	second := flow.NewSession(time.Now())
	third := flow.NewSession(time.Now())
	for _, s := range []*flow.Session{first, second, third} {
		require.NoError(t, store.Save(ctx, s))
	}

	require.Equal(t, 2, store.Len())
	_, err := store.Get(ctx, first.ID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = store.Get(ctx, third.ID)
	require.NoError(t, err)
}

func TestMemoryStoreExpires(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sessionstore.NewMemoryStore(10, 20*time.Millisecond)
	session := flow.NewSession(time.Now())
	require.NoError(t, store.Save(ctx, session))

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, session.ID)
		return apperrors.IsCode(err, apperrors.CodeNotFound)
	}, time.Second, 10*time.Millisecond)
}
