package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister()
	s := NewStore(p, WithClock(func() time.Time { return fixedNow }))
	return s, p
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func totals(t *testing.T, s *Store, sid, party string) map[string]string {
	t.Helper()
	members, err := s.Members(sid, party)
	require.NoError(t, err)
	out := make(map[string]string, len(members))
	for _, m := range members {
		out[m.Name] = FormatAmount(m.Total)
	}
	return out
}

func TestCreateParty(t *testing.T) {
	ctx := context.Background()
	s, p := newTestStore(t)

	party, created, err := s.CreateParty(ctx, "chat1", "Birthday", 42, "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Birthday", party.Name)
	require.NotNil(t, party.CreatorID)
	assert.Equal(t, int64(42), *party.CreatorID)
	assert.Equal(t, "Birthday", s.CurrentParty("chat1"))
	assert.Equal(t, map[string]string{"alice": "0.00"}, totals(t, s, "chat1", "Birthday"))
	assert.Equal(t, 1, p.Saves())

	t.Run("existing name selects instead of failing", func(t *testing.T) {
		_, _, err := s.CreateParty(ctx, "chat1", "Picnic", 42, "alice")
		require.NoError(t, err)
		require.Equal(t, "Picnic", s.CurrentParty("chat1"))

		party, created, err := s.CreateParty(ctx, "chat1", "Birthday", 7, "bob")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(42), *party.CreatorID)
		assert.Equal(t, "Birthday", s.CurrentParty("chat1"))
		assert.Equal(t, []string{"Birthday", "Picnic"}, s.ListParties("chat1"))
	})

	t.Run("empty name", func(t *testing.T) {
		_, _, err := s.CreateParty(ctx, "chat1", "   ", 42, "alice")
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("sessions are independent", func(t *testing.T) {
		assert.Empty(t, s.ListParties("chat2"))
		assert.Equal(t, "", s.CurrentParty("chat2"))
	})
}

func TestSelectParty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, _, err := s.CreateParty(ctx, "c", "A", 1, "alice")
	require.NoError(t, err)
	_, _, err = s.CreateParty(ctx, "c", "B", 1, "alice")
	require.NoError(t, err)

	p, err := s.SelectParty(ctx, "c", "A")
	require.NoError(t, err)
	assert.Equal(t, "A", p.Name)
	assert.Equal(t, "A", s.CurrentParty("c"))

	_, err = s.SelectParty(ctx, "c", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "A", s.CurrentParty("c"))
}

func TestDeleteParty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, _, err := s.CreateParty(ctx, "c", "A", 1, "alice")
	require.NoError(t, err)
	_, err = s.RecordExpense(ctx, "c", "A", "alice", amount("10"), "")
	require.NoError(t, err)

	err = s.DeleteParty(ctx, "c", "A", 2)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	party, err := s.Party("c", "A")
	require.NoError(t, err)
	assert.Len(t, party.Expenses, 1)
	assert.Equal(t, "A", s.CurrentParty("c"))

	err = s.DeleteParty(ctx, "c", "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteParty(ctx, "c", "A", 1))
	assert.Empty(t, s.ListParties("c"))
	assert.Equal(t, "", s.CurrentParty("c"))
}

func TestDeleteParty_KeepsSelectionOfOtherParty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, _, _ = s.CreateParty(ctx, "c", "A", 1, "alice")
	_, _, _ = s.CreateParty(ctx, "c", "B", 1, "alice")

	require.NoError(t, s.DeleteParty(ctx, "c", "A", 1))
	assert.Equal(t, "B", s.CurrentParty("c"))
}

func TestDeleteParty_LegacyWithoutCreator(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Import(ctx, map[string]*Chat{
		"c": {Parties: []*Party{{Name: "old"}}, CurrentParty: "old"},
	}))

	require.NoError(t, s.DeleteParty(ctx, "c", "old", 999))
	assert.Equal(t, "", s.CurrentParty("c"))
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, _, err := s.CreateParty(ctx, "c", "A", 1, "alice")
	require.NoError(t, err)

	added, err := s.AddMember(ctx, "c", "A", "bob")
	require.NoError(t, err)
	assert.True(t, added)

	_, err = s.RecordExpense(ctx, "c", "A", "bob", amount("5.5"), "")
	require.NoError(t, err)

	added, err = s.AddMember(ctx, "c", "A", "bob")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "5.50", totals(t, s, "c", "A")["bob"])

	_, err = s.AddMember(ctx, "c", "", "bob")
	assert.ErrorIs(t, err, ErrNoCurrentParty)
	_, err = s.AddMember(ctx, "c", "A", " ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = s.AddMember(ctx, "c", "missing", "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveMember_ReAddResetsTotal(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, _, err := s.CreateParty(ctx, "c", "A", 1, "alice")
	require.NoError(t, err)
	_, err = s.RecordExpense(ctx, "c", "A", "bob", amount("12.34"), "pizza")
	require.NoError(t, err)

	require.NoError(t, s.RemoveMember(ctx, "c", "A", "bob"))
	assert.NotContains(t, totals(t, s, "c", "A"), "bob")

	err = s.RemoveMember(ctx, "c", "A", "bob")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	added, err := s.AddMember(ctx, "c", "A", "bob")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "0.00", totals(t, s, "c", "A")["bob"])

	party, err := s.Party("c", "A")
	require.NoError(t, err)
	require.Len(t, party.Expenses, 1)
	assert.Equal(t, "bob", party.Expenses[0].Payer)
	assert.Equal(t, "12.34", FormatAmount(party.Expenses[0].Amount))
}

func TestRecordExpense(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, _, err := s.CreateParty(ctx, "c", "A", 1, "alice")
	require.NoError(t, err)

	exp, err := s.RecordExpense(ctx, "c", "A", "alice", amount("10.005"), "drinks")
	require.NoError(t, err)
	assert.Equal(t, "10.01", FormatAmount(exp.Amount))
	assert.Equal(t, fixedNow, exp.Timestamp)
	assert.NotEqual(t, uuid.Nil, exp.ID)

	_, err = s.RecordExpense(ctx, "c", "A", "carol", amount("0"), "")
	require.NoError(t, err)
	_, err = s.RecordExpense(ctx, "c", "A", "alice", amount("2.49"), "")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"alice": "12.50", "carol": "0.00"}, totals(t, s, "c", "A"))

	party, err := s.Party("c", "A")
	require.NoError(t, err)
	require.Len(t, party.Expenses, 3)
	assert.Equal(t, "drinks", party.Expenses[0].Description)
	assert.Equal(t, "carol", party.Expenses[1].Payer)

	t.Run("totals match expense history", func(t *testing.T) {
		sums := map[string]decimal.Decimal{}
		for _, e := range party.Expenses {
			sums[e.Payer] = sums[e.Payer].Add(e.Amount)
		}
		for _, m := range party.Members {
			assert.True(t, m.Total.Equal(sums[m.Name]), m.Name)
		}
	})

	t.Run("errors", func(t *testing.T) {
		_, err := s.RecordExpense(ctx, "c", "A", "alice", amount("-1"), "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = s.RecordExpense(ctx, "c", "", "alice", amount("1"), "")
		assert.ErrorIs(t, err, ErrNoCurrentParty)
		_, err = s.RecordExpense(ctx, "c", "gone", "alice", amount("1"), "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("amount limits", func(t *testing.T) {
		for _, in := range []string{"1000000000000", "999999999999.995", "1e400", "1e20000000", "1e-20000000"} {
			_, err := s.RecordExpense(ctx, "c", "A", "dave", amount(in), "")
			assert.ErrorIs(t, err, ErrInvalidAmount, in)
		}

		_, err := s.RecordExpense(ctx, "c", "A", "dave", amount(MaxAmount), "")
		require.NoError(t, err)
		_, err = s.RecordExpense(ctx, "c", "A", "dave", amount("0.01"), "")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		members, err := s.Members("c", "A")
		require.NoError(t, err)
		assert.Equal(t, MaxAmount, FormatAmount(members[len(members)-1].Total))
		party, err := s.Party("c", "A")
		require.NoError(t, err)
		assert.Len(t, party.Expenses, 4)
	})
}

func TestMutationAbortedWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	s, p := newTestStore(t)
	_, _, err := s.CreateParty(ctx, "c", "A", 1, "alice")
	require.NoError(t, err)

	boom := errors.New("disk full")
	p.SetFailSave(boom)
	_, err = s.RecordExpense(ctx, "c", "A", "alice", amount("10"), "")
	require.ErrorIs(t, err, boom)

	assert.Equal(t, "0.00", totals(t, s, "c", "A")["alice"])
	party, err := s.Party("c", "A")
	require.NoError(t, err)
	assert.Empty(t, party.Expenses)

	p.SetFailSave(nil)
	reloaded := NewStore(p)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, "0.00", totals(t, reloaded, "c", "A")["alice"])
}

func TestReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, p := newTestStore(t)
	_, _, err := s.CreateParty(ctx, "c", "A", 1, "alice")
	require.NoError(t, err)
	require.NoError(t, s.SetLanguage(ctx, "c", "en"))
	_, err = s.RecordExpense(ctx, "c", "A", "bob", amount("3.10"), "taxi")
	require.NoError(t, err)
	_, err = s.RecordExpense(ctx, "c", "A", "alice", amount("7"), "")
	require.NoError(t, err)

	reloaded := NewStore(p)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, EncodeChat(s.Chat("c")), EncodeChat(reloaded.Chat("c")))
}

func TestPartiesByCreator(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, _, _ = s.CreateParty(ctx, "b", "X", 1, "alice")
	_, _, _ = s.CreateParty(ctx, "a", "Y", 1, "alice")
	_, _, _ = s.CreateParty(ctx, "a", "Z", 2, "bob")

	assert.Equal(t, []PartyRef{{SessionID: "a", Name: "Y"}, {SessionID: "b", Name: "X"}}, s.PartiesByCreator(1))
	assert.Empty(t, s.PartiesByCreator(3))
}

func TestConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	const sessions, perSession = 8, 25

	for i := 0; i < sessions; i++ {
		_, _, err := s.CreateParty(ctx, fmt.Sprintf("c%d", i), "P", 1, "alice")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		for j := 0; j < perSession; j++ {
			wg.Add(1)
			go func(sid string) {
				defer wg.Done()
				_, err := s.RecordExpense(ctx, sid, "P", "alice", amount("1.01"), "")
				assert.NoError(t, err)
			}(fmt.Sprintf("c%d", i))
		}
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		sid := fmt.Sprintf("c%d", i)
		assert.Equal(t, "25.25", totals(t, s, sid, "P")["alice"])
		party, err := s.Party(sid, "P")
		require.NoError(t, err)
		assert.Len(t, party.Expenses, perSession)
	}
}
