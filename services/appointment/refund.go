// File: services/appointment/refund.go
package appointment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roza-in/server/models"
	"github.com/roza-in/server/utils"
)

// RefundWindow grants Percent back when the cancellation lands at least
// MinLeadMinutes before the scheduled start.
type RefundWindow struct {
	MinLeadMinutes int
	Percent        int
}

// RefundPolicy decides what fraction of a paid appointment comes back on
// cancellation. The windows apply to patient-initiated cancellations;
// doctor, hospital, admin and platform cancellations always refund in full.
// The percentages are business configuration, not engine logic.
type RefundPolicy struct {
	Windows []RefundWindow // sorted by MinLeadMinutes descending
}

// DefaultRefundPolicy is the platform's standard table: full refund a day
// or more out, then 75%, 50%, and nothing inside the final hour.
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{Windows: []RefundWindow{
		{MinLeadMinutes: 24 * 60, Percent: 100},
		{MinLeadMinutes: 6 * 60, Percent: 75},
		{MinLeadMinutes: 60, Percent: 50},
		{MinLeadMinutes: 0, Percent: 0},
	}}
}

// ParseRefundPolicy reads a "1440:100,360:75,60:50,0:0" config string.
// Windows may be given in any order; they are sorted here.
func ParseRefundPolicy(s string) (RefundPolicy, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultRefundPolicy(), nil
	}
	var windows []RefundWindow
	for _, pair := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(pair), ":")
		if len(parts) != 2 {
			return RefundPolicy{}, fmt.Errorf("invalid refund window %q", pair)
		}
		lead, err := strconv.Atoi(parts[0])
		if err != nil {
			return RefundPolicy{}, fmt.Errorf("invalid refund lead %q: %w", parts[0], err)
		}
		pct, err := strconv.Atoi(parts[1])
		if err != nil {
			return RefundPolicy{}, fmt.Errorf("invalid refund percent %q: %w", parts[1], err)
		}
		if pct < 0 || pct > 100 {
			return RefundPolicy{}, fmt.Errorf("refund percent %d outside [0, 100]", pct)
		}
		windows = append(windows, RefundWindow{MinLeadMinutes: lead, Percent: pct})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].MinLeadMinutes > windows[j].MinLeadMinutes })
	return RefundPolicy{Windows: windows}, nil
}

// RefundDecision is the policy outcome for one cancellation.
type RefundDecision struct {
	Type              models.RefundType
	Percent           int
	LeadMinutes       int
	Amount            float64
	PlatformFeeRefund float64
}

// ComputeRefund applies the policy to a cancellation of appt by actor at
// instant now. It is pure and total: every actor and every lead time,
// including negative ones, maps to a defined percentage; no I/O happens
// here. Settlement against the gateway is the caller's business.
func (p RefundPolicy) ComputeRefund(appt models.Appointment, actor models.CancelActor, now time.Time, loc *time.Location) RefundDecision {
	lead := leadMinutes(appt, now, loc)

	pct := 0
	switch actor {
	case models.CancelByDoctor, models.CancelByHospital, models.CancelByAdmin, models.CancelBySystem:
		// The platform or the practice pulled the appointment out from
		// under the patient; the patient gets everything back.
		pct = 100
	default:
		for _, w := range p.Windows {
			if lead >= w.MinLeadMinutes {
				pct = w.Percent
				break
			}
		}
	}

	return RefundDecision{
		Type:              refundType(pct),
		Percent:           pct,
		LeadMinutes:       lead,
		Amount:            utils.RoundMoney(appt.Fee * float64(pct) / 100),
		PlatformFeeRefund: utils.RoundMoney(appt.PlatformFee * float64(pct) / 100),
	}
}

// leadMinutes measures how far before the scheduled start the cancellation
// happens. A malformed date yields a negative lead, which the window table
// maps to zero percent rather than failing.
func leadMinutes(appt models.Appointment, now time.Time, loc *time.Location) int {
	startsAt, err := appt.StartsAt(loc)
	if err != nil {
		return -1
	}
	return int(startsAt.Sub(now) / time.Minute)
}

func refundType(pct int) models.RefundType {
	switch {
	case pct >= 100:
		return models.RefundFull
	case pct > 0:
		return models.RefundPartial
	}
	return models.RefundNone
}
