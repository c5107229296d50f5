package core

import (
	"time"

	"go.uber.org/zap"

	"github.com/salazaj/provenance-recorder/pkg/config"
	"github.com/salazaj/provenance-recorder/pkg/fingerprint"
	"github.com/salazaj/provenance-recorder/pkg/model"
)

type recordSettings struct {
	name       string
	inputs     []string
	outputs    []string
	paramsFile string
	workDir    string
	provDir    string
	gitMode    string
	envMode    string
	maker      *fingerprint.Maker
	l          *zap.Logger
	clock      func() time.Time
}

func defaultRecordSettings() recordSettings {
	return recordSettings{
		workDir: ".",
		provDir: model.DefaultProvDir,
		gitMode: config.GitAuto,
		envMode: config.EnvMinimal,
		l:       zap.NewNop(),
		clock:   time.Now,
	}
}

// RecordOption configures a recording
type RecordOption func(*recordSettings)

// RecordName sets the short free-text name of the run
func RecordName(name string) RecordOption {
	return func(s *recordSettings) {
		s.name = name
	}
}

// RecordInputs sets the input files or directories to fingerprint
func RecordInputs(inputs ...string) RecordOption {
	return func(s *recordSettings) {
		s.inputs = inputs
	}
}

// RecordOutputs sets the output files or directories to fingerprint
func RecordOutputs(outputs ...string) RecordOption {
	return func(s *recordSettings) {
		s.outputs = outputs
	}
}

// RecordParamsFile sets the optional params file
func RecordParamsFile(pth string) RecordOption {
	return func(s *recordSettings) {
		s.paramsFile = pth
	}
}

// RecordWorkDir sets the directory paths are relativized against and git
// state is captured from
func RecordWorkDir(dir string) RecordOption {
	return func(s *recordSettings) {
		if dir != "" {
			s.workDir = dir
		}
	}
}

// RecordProvDir sets the prov directory recorded in index entry paths
func RecordProvDir(dir string) RecordOption {
	return func(s *recordSettings) {
		if dir != "" {
			s.provDir = dir
		}
	}
}

// RecordGitMode sets the git capture mode (auto, require, off)
func RecordGitMode(mode string) RecordOption {
	return func(s *recordSettings) {
		if mode != "" {
			s.gitMode = mode
		}
	}
}

// RecordEnvMode sets the environment capture mode (minimal, none)
func RecordEnvMode(mode string) RecordOption {
	return func(s *recordSettings) {
		if mode != "" {
			s.envMode = mode
		}
	}
}

// RecordMaker sets the fingerprint maker used for manifests
func RecordMaker(m *fingerprint.Maker) RecordOption {
	return func(s *recordSettings) {
		if m != nil {
			s.maker = m
		}
	}
}

// RecordLogger sets a logger on the recording
func RecordLogger(l *zap.Logger) RecordOption {
	return func(s *recordSettings) {
		if l != nil {
			s.l = l
		}
	}
}

// RecordClock overrides the time source, for deterministic run ids in tests
func RecordClock(clock func() time.Time) RecordOption {
	return func(s *recordSettings) {
		if clock != nil {
			s.clock = clock
		}
	}
}
