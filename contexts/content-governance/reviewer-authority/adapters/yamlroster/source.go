package yamlroster

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"maestro/contexts/content-governance/reviewer-authority/domain/entities"
	domainerrors "maestro/contexts/content-governance/reviewer-authority/domain/errors"
	"maestro/contexts/content-governance/reviewer-authority/ports"

	"gopkg.in/yaml.v3"
)

type rosterFile struct {
	Reviewers []struct {
		ID       string `yaml:"id"`
		Email    string `yaml:"email"`
		Nickname string `yaml:"nickname"`
		Tier     int    `yaml:"tier"`
	} `yaml:"reviewers"`
	DecisiveEmails []string `yaml:"decisive_emails"`
}

// FileSource reads the roster from a YAML file on every load.
type FileSource struct {
	Path string
}

func (s FileSource) LoadRoster(_ context.Context) (entities.Roster, error) {
	path := strings.TrimSpace(s.Path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entities.Roster{}, fmt.Errorf("%w: %s", domainerrors.ErrRosterSourceNotFound, path)
		}
		return entities.Roster{}, err
	}
	return Parse(data)
}

// StaticSource serves a roster built in code.
type StaticSource struct {
	Roster entities.Roster
}

func (s StaticSource) LoadRoster(_ context.Context) (entities.Roster, error) {
	return s.Roster, nil
}

// Parse decodes the YAML roster format:
//
//	reviewers:
//	  - id: maestro-1
//	    email: ana@maestro.dev
//	    nickname: ana
//	    tier: 6
//	decisive_emails:
//	  - ana@maestro.dev
func Parse(data []byte) (entities.Roster, error) {
	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return entities.Roster{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidRoster, err)
	}
	roster := entities.Roster{
		Reviewers:      make([]entities.SystemUser, 0, len(file.Reviewers)),
		DecisiveEmails: append([]string(nil), file.DecisiveEmails...),
	}
	for _, reviewer := range file.Reviewers {
		roster.Reviewers = append(roster.Reviewers, entities.SystemUser{
			ID:       reviewer.ID,
			Email:    reviewer.Email,
			Nickname: reviewer.Nickname,
			Tier:     reviewer.Tier,
		})
	}
	return roster, nil
}

var _ ports.RosterSource = FileSource{}
var _ ports.RosterSource = StaticSource{}
