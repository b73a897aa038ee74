package check

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/config/kvstore"
)

// auditConfig checks that the config files parse. Both are optional.
func auditConfig(dir string) Section {
	s := Section{Title: "Config"}

	jsonPath := filepath.Join(dir, config.ConfigFileName)
	data, err := os.ReadFile(jsonPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.Entries = append(s.Entries, Entry{Name: config.ConfigFileName, Status: StatusWarn, Detail: "not created yet; defaults apply"})
	case err != nil:
		s.Entries = append(s.Entries, Entry{Name: config.ConfigFileName, Status: StatusFail, Detail: err.Error()})
	default:
		var c config.Config
		if err := json.Unmarshal(data, &c); err != nil {
			s.Entries = append(s.Entries, Entry{Name: config.ConfigFileName, Status: StatusFail, Detail: err.Error()})
		} else {
			s.Entries = append(s.Entries, Entry{Name: config.ConfigFileName, Status: StatusOK, Detail: jsonPath})
		}
	}

	tomlPath := filepath.Join(dir, config.TOMLConfigFileName)
	if _, err := os.Stat(tomlPath); errors.Is(err, os.ErrNotExist) {
		s.Entries = append(s.Entries, Entry{Name: config.TOMLConfigFileName, Status: StatusOK, Detail: "not present"})
	} else if _, err := config.LoadTOMLConfigFrom(tomlPath); err != nil {
		s.Entries = append(s.Entries, Entry{Name: config.TOMLConfigFileName, Status: StatusFail, Detail: err.Error()})
	} else {
		s.Entries = append(s.Entries, Entry{Name: config.TOMLConfigFileName, Status: StatusOK, Detail: tomlPath})
	}
	return s
}

// auditState opens the state database without creating it.
func auditState(cfg *config.Config) Section {
	s := Section{Title: "State"}

	path, err := cfg.StatePath()
	if err != nil {
		s.Entries = append(s.Entries, Entry{Name: "state.db", Status: StatusFail, Detail: err.Error()})
		return s
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		s.Entries = append(s.Entries, Entry{Name: "state.db", Status: StatusWarn, Detail: "created on first run: " + path})
		return s
	}
	if err != nil {
		s.Entries = append(s.Entries, Entry{Name: "state.db", Status: StatusFail, Detail: err.Error()})
		return s
	}

	store, err := kvstore.NewSQLiteStore(path)
	if err != nil {
		s.Entries = append(s.Entries, Entry{Name: "preferences", Status: StatusFail, Detail: err.Error()})
		return s
	}
	keys, err := store.Keys()
	store.Close()
	if err != nil {
		s.Entries = append(s.Entries, Entry{Name: "preferences", Status: StatusFail, Detail: err.Error()})
	} else {
		s.Entries = append(s.Entries, Entry{
			Name:   "preferences",
			Status: StatusOK,
			Detail: fmt.Sprintf("%d keys, %s", len(keys), humanize.Bytes(uint64(info.Size()))),
		})
	}

	logger, err := auditlog.NewSQLiteLogger(path)
	if err != nil {
		// The app runs without the activity trail.
		s.Entries = append(s.Entries, Entry{Name: "activity log", Status: StatusWarn, Detail: err.Error()})
		return s
	}
	defer logger.Close()
	events, err := logger.Query(auditlog.QueryFilter{Limit: 1})
	switch {
	case err != nil:
		s.Entries = append(s.Entries, Entry{Name: "activity log", Status: StatusWarn, Detail: err.Error()})
	case len(events) == 0:
		s.Entries = append(s.Entries, Entry{Name: "activity log", Status: StatusOK, Detail: "empty"})
	default:
		s.Entries = append(s.Entries, Entry{Name: "activity log", Status: StatusOK, Detail: "last activity " + humanize.Time(events[0].Timestamp)})
	}
	return s
}
