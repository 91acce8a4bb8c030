// Package predictor bridges to the trained quality models. Predictions run
// through an external script that loads the serialized models and answers
// over a JSON pipe.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/kslabenko/repo-quality-metrics/internal/domain"
	apperrors "github.com/kslabenko/repo-quality-metrics/internal/errors"
)

// Prediction holds the modeled outcome targets.
type Prediction struct {
	OverallScore    float64 `json:"overallScore"`
	TimeToMarket    float64 `json:"timeToMarket"`
	CommunityGrowth float64 `json:"communityGrowth"`
}

// WhatIfTarget compares one target's baseline prediction against the
// prediction with proposed metric changes applied.
type WhatIfTarget struct {
	Baseline      float64 `json:"baseline"`
	Predicted     float64 `json:"predicted"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Predictor answers quality predictions for a metrics bundle.
type Predictor interface {
	Predict(ctx context.Context, metrics domain.MetricsBundle) (*Prediction, error)

	// WhatIf predicts each target with the given prefixed metric changes
	// (e.g. "dx_codeReviewDuration": 24) applied on top of the bundle.
	WhatIf(ctx context.Context, metrics domain.MetricsBundle, changes map[string]float64) (map[string]WhatIfTarget, error)
}

// ScriptPredictor shells out to the prediction script with a JSON argument
// and parses its JSON reply.
type ScriptPredictor struct {
	PythonBin string
	Script    string
}

// NewScriptPredictor creates a predictor for the given script path.
func NewScriptPredictor(pythonBin, script string) *ScriptPredictor {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	return &ScriptPredictor{PythonBin: pythonBin, Script: script}
}

type scriptReply struct {
	Type        string                  `json:"type"`
	Predictions *Prediction             `json:"predictions,omitempty"`
	Analysis    map[string]WhatIfTarget `json:"analysis,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// Predict runs a plain prediction for the bundle.
func (p *ScriptPredictor) Predict(ctx context.Context, metrics domain.MetricsBundle) (*Prediction, error) {
	reply, err := p.run(ctx, bundlePayload(metrics))
	if err != nil {
		return nil, err
	}
	if reply.Predictions == nil {
		return nil, apperrors.NewInternalError("prediction reply carried no predictions", nil)
	}
	return reply.Predictions, nil
}

// WhatIf runs a comparison prediction with the given changes applied.
func (p *ScriptPredictor) WhatIf(ctx context.Context, metrics domain.MetricsBundle, changes map[string]float64) (map[string]WhatIfTarget, error) {
	payload := map[string]interface{}{
		"metrics": bundlePayload(metrics),
		"whatif":  changes,
	}
	reply, err := p.run(ctx, payload)
	if err != nil {
		return nil, err
	}
	if reply.Analysis == nil {
		return nil, apperrors.NewInternalError("what-if reply carried no analysis", nil)
	}
	return reply.Analysis, nil
}

func (p *ScriptPredictor) run(ctx context.Context, payload interface{}) (*scriptReply, error) {
	if p.Script == "" {
		return nil, apperrors.NewBadRequestError("no prediction script configured")
	}

	input, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, p.PythonBin, p.Script, string(input))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// The script reports failures as JSON on stdout before exiting
		// non-zero, so try to surface that message first.
		if reply, parseErr := parseReply(stdout.Bytes()); parseErr == nil && reply.Error != "" {
			return nil, apperrors.NewInternalError("prediction script failed: "+reply.Error, err)
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("prediction script failed: %s", stderr.String()), err)
	}

	reply, err := parseReply(stdout.Bytes())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to parse prediction reply", err)
	}
	if reply.Error != "" {
		return nil, apperrors.NewInternalError("prediction script failed: "+reply.Error, nil)
	}
	return reply, nil
}

func parseReply(out []byte) (*scriptReply, error) {
	var reply scriptReply
	if err := json.Unmarshal(out, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// bundlePayload reduces the bundle to category maps of plain numbers. Absent
// metrics are omitted so the model treats them as missing, not zero.
func bundlePayload(metrics domain.MetricsBundle) map[string]map[string]float64 {
	return map[string]map[string]float64{
		"developerExperience":  recordValues(metrics.DeveloperExperience.Records()),
		"technicalPerformance": recordValues(metrics.TechnicalPerformance.Records()),
		"businessImpact":       recordValues(metrics.BusinessImpact.Records()),
	}
}

func recordValues(recs map[string]domain.MetricRecord) map[string]float64 {
	values := make(map[string]float64, len(recs))
	for name, rec := range recs {
		if v, ok := rec.Float(); ok {
			values[name] = v
		}
	}
	return values
}
