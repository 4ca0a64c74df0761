package driver

import (
	"encoding/json"
	"fmt"

	"flyc/internal/diag"
	"flyc/internal/observ"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records the payload as an info diagnostic whose
// note carries the JSON form, even when the bag is full.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "unit"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Path != "" {
		msg += ", " + payload.Path
	}
	bag.Force(diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.PrjTimings,
		Message:  msg,
		Notes:    []diag.Note{{Msg: string(data)}},
	})
}
