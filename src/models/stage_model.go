package models

import (
	"fmt"
	"strings"
)

// Stage is the phase a connection is in. Stages are totally ordered.
type Stage string

const (
	StageHandshake     Stage = "handshake"
	StageCommunication Stage = "communication"
	StageFaceToFace    Stage = "face2face"
)

var stageOrder = []Stage{StageHandshake, StageCommunication, StageFaceToFace}

// Stages returns every stage in lifecycle order
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ParseStage accepts the canonical stage names plus a couple of aliases used by clients
func ParseStage(raw string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "handshake":
		return StageHandshake, nil
	case "communication":
		return StageCommunication, nil
	case "face2face", "facetoface", "face_to_face":
		return StageFaceToFace, nil
	}
	return "", NewValidationError(fmt.Sprintf("unknown stage %q", raw))
}

// Valid reports whether s is one of the known stages
func (s Stage) Valid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of the stage in the lifecycle, or -1 if unknown
func (s Stage) Rank() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage. ok is false at the terminal stage.
func (s Stage) Next() (Stage, bool) {
	r := s.Rank()
	if r < 0 || r+1 >= len(stageOrder) {
		return "", false
	}
	return stageOrder[r+1], true
}

// IsTerminal reports whether no stage follows s
func (s Stage) IsTerminal() bool {
	return s == StageFaceToFace
}

// Label returns the human readable name shown in stage badges
func (s Stage) Label() string {
	switch s {
	case StageHandshake:
		return "Getting to Know"
	case StageCommunication:
		return "Building Connection"
	case StageFaceToFace:
		return "Ready to Meet"
	default:
		return string(s)
	}
}

// Color returns the semantic color token for the stage
func (s Stage) Color() string {
	switch s {
	case StageHandshake:
		return "primary"
	case StageCommunication:
		return "accent"
	case StageFaceToFace:
		return "success"
	default:
		return "muted"
	}
}

type StageInfo struct {
	Stage Stage  `json:"stage"`
	Label string `json:"label"`
	Color string `json:"color"`
	Rank  int    `json:"rank"`
}

// StageCatalog returns label and color for every stage, in order
func StageCatalog() []StageInfo {
	out := make([]StageInfo, 0, len(stageOrder))
	for _, s := range stageOrder {
		out = append(out, StageInfo{Stage: s, Label: s.Label(), Color: s.Color(), Rank: s.Rank()})
	}
	return out
}

// ConnectionType categorizes a connection. The set is open; unknown values are kept as-is.
type ConnectionType string

const (
	ConnectionTypeDating     ConnectionType = "dating"
	ConnectionTypeFriendship ConnectionType = "friendship"
	ConnectionTypeSocial     ConnectionType = "social"
	ConnectionTypeNetworking ConnectionType = "networking"
)

// NormalizeConnectionType lowercases and trims a client supplied type
func NormalizeConnectionType(raw string) ConnectionType {
	return ConnectionType(strings.ToLower(strings.TrimSpace(raw)))
}

func (t ConnectionType) Color() string {
	switch t {
	case ConnectionTypeDating:
		return "accent"
	case ConnectionTypeFriendship:
		return "primary"
	case ConnectionTypeSocial:
		return "success"
	case ConnectionTypeNetworking:
		return "warning"
	default:
		return "muted"
	}
}
