package stake_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/pitchcast/internal/domain/stake"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSize(t *testing.T) {
	Convey("Given a default sizer and a 1000 bankroll", t, func() {
		s := stake.NewSizer()
		bank := decimal.NewFromInt(1000)

		Convey("When the edge is small", func() {
			// b=1, p=0.52: kelly 0.04, quarter 0.01
			st, err := s.Size(2.0, 0.52, bank)
			So(err, ShouldBeNil)
			So(st.Kelly.Equal(decimal.RequireFromString("0.04")), ShouldBeTrue)
			So(st.Fraction.Equal(decimal.RequireFromString("0.01")), ShouldBeTrue)
			So(st.Amount.String(), ShouldEqual, "10")
			So(st.Capped, ShouldBeFalse)
		})

		Convey("When the edge is large", func() {
			st, err := s.Size(3.0, 0.8, bank)
			So(err, ShouldBeNil)
			So(st.Capped, ShouldBeTrue)
			So(st.Amount.String(), ShouldEqual, "50")
		})

		Convey("When there is no edge", func() {
			st, err := s.Size(1.5, 0.5, bank)
			So(err, ShouldBeNil)
			So(st.Kelly.IsNegative(), ShouldBeTrue)
			So(st.Amount.IsZero(), ShouldBeTrue)
			So(st.Fraction.IsZero(), ShouldBeTrue)
		})

		Convey("When inputs are invalid", func() {
			_, err := s.Size(1.0, 0.5, bank)
			So(errors.Is(err, stake.ErrInvalidOdds), ShouldBeTrue)
			_, err = s.Size(2.0, 1.5, bank)
			So(errors.Is(err, stake.ErrInvalidProbability), ShouldBeTrue)
			_, err = s.Size(2.0, 0.5, decimal.NewFromInt(-1))
			So(errors.Is(err, stake.ErrInvalidBankroll), ShouldBeTrue)
		})

		Convey("When odds or probability are infinite or NaN", func() {
			_, err := s.Size(math.Inf(1), 0.5, bank)
			So(errors.Is(err, stake.ErrInvalidOdds), ShouldBeTrue)
			_, err = s.Size(math.NaN(), 0.5, bank)
			So(errors.Is(err, stake.ErrInvalidOdds), ShouldBeTrue)
			_, err = s.Size(2.0, math.Inf(1), bank)
			So(errors.Is(err, stake.ErrInvalidProbability), ShouldBeTrue)
			_, err = s.Size(2.0, math.Inf(-1), bank)
			So(errors.Is(err, stake.ErrInvalidProbability), ShouldBeTrue)
		})
	})

	Convey("Given a custom fraction and cap", t, func() {
		s := stake.NewSizer(stake.WithFraction(0.5), stake.WithCap(0.1), stake.WithFraction(7))
		st, err := s.Size(2.0, 0.6, decimal.NewFromInt(100))
		So(err, ShouldBeNil)
		// kelly 0.2, half 0.1, exactly the cap
		So(st.Fraction.Equal(decimal.RequireFromString("0.1")), ShouldBeTrue)
		So(st.Capped, ShouldBeFalse)
		So(st.Amount.String(), ShouldEqual, "10")
	})
}
