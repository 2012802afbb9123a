package interval

import (
	"fmt"

	"go.uber.org/zap"
)

// Load reads every kept record from the parser and groups them by chromosome.
// Records keep their input order within each chromosome.
func Load(p *Parser) (Set, error) {
	set := make(Set)
	for {
		rec, err := p.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return set, nil
		}
		set.Add(*rec)
	}
}

// LoadFile opens path, loads all records and closes the file.
func LoadFile(path string, logger *zap.Logger) (Set, Stats, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer p.Close()
	p.SetLogger(logger)

	set, err := Load(p)
	if err != nil {
		return nil, p.Stats(), fmt.Errorf("load %s: %w", path, err)
	}

	st := p.Stats()
	logger.Info("loaded intervals",
		zap.String("path", path),
		zap.Int("rows", st.Rows),
		zap.Int("kept", set.Count()),
		zap.Int("dropped", st.Dropped),
		zap.Int("defaulted", st.Defaulted),
		zap.Int("chromosomes", len(set)))

	return set, st, nil
}
