package yieldsim

import (
	"testing"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/weavetest"
	"github.com/iov-one/harvest/x/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRouter map[string]harvest.Handler

func (r testRouter) Handle(m harvest.Msg, h harvest.Handler) { r[m.Path()] = h }

func TestControlHandler(t *testing.T) {
	governor := weavetest.NewCondition()
	stranger := weavetest.NewCondition()
	oracle := roles.StaticOracle{roles.Governor: {governor.Address()}}
	amount := usdc(5)

	cases := map[string]struct {
		signer      harvest.Condition
		msg         harvest.Msg
		wantErr     *errors.Error
		wantPending int64
		wantHaircut harvest.Ratio
	}{
		"governor accrues": {
			signer:      governor,
			msg:         &AccrueMsg{Metadata: &harvest.Metadata{Schema: 1}, Venue: "alpha", Amount: &amount},
			wantPending: 5,
		},
		"governor sets haircut": {
			signer:      governor,
			msg:         &SetHaircutMsg{Metadata: &harvest.Metadata{Schema: 1}, Venue: "alpha", Haircut: 30},
			wantHaircut: 30,
		},
		"governor slashes an empty venue": {
			signer: governor,
			msg:    &SlashMsg{Metadata: &harvest.Metadata{Schema: 1}, Venue: "alpha", Amount: &amount},
		},
		"stranger is rejected": {
			signer:  stranger,
			msg:     &AccrueMsg{Metadata: &harvest.Metadata{Schema: 1}, Venue: "alpha", Amount: &amount},
			wantErr: errors.ErrUnauthorized,
		},
		"unknown venue": {
			signer:  governor,
			msg:     &AccrueMsg{Metadata: &harvest.Metadata{Schema: 1}, Venue: "gamma", Amount: &amount},
			wantErr: errors.ErrNotFound,
		},
		"missing amount": {
			signer:  governor,
			msg:     &AccrueMsg{Metadata: &harvest.Metadata{Schema: 1}, Venue: "alpha"},
			wantErr: errors.ErrAmount,
		},
		"invalid haircut": {
			signer:  governor,
			msg:     &SetHaircutMsg{Metadata: &harvest.Metadata{Schema: 1}, Venue: "alpha", Haircut: 20000},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db, _, v, _ := newVenue(t)
			r := make(testRouter)
			auth := &weavetest.Auth{Signer: tc.signer}
			RegisterRoutes(r, auth, oracle, v)

			h, ok := r[tc.msg.Path()]
			require.True(t, ok)
			_, err := h.Deliver(weavetest.Ctx(5, now), db, &weavetest.Tx{Msg: tc.msg})
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			p, err := v.Position(db)
			require.NoError(t, err)
			assert.Equal(t, usdc(tc.wantPending), *p.Pending)
			assert.Equal(t, tc.wantHaircut, p.Haircut)
		})
	}
}
