package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"bitbucket.org/gigdash/earnings_backend/utils"
)

const (
	// AffiliationAll is the sentinel filter value that applies no filtering.
	AffiliationAll = "All"
	// Unaffiliated is the token assigned to drivers with no organization.
	Unaffiliated = "unaffiliated"
)

// Long-form labels from older sign-up forms that alias an organization's
// canonical name. Applied before normalization so both spellings end up on
// the same token.
var affiliationAliases = map[string]string{
	"RDU/Rideshare Drivers United":             "Rideshare Drivers United",
	"CIDU/Colorado Independent Drivers United": "Colorado Independent Drivers United",
}

// Accepted values for the affiliation query parameter and their canonical
// tokens. Anything else is rejected, it is not silently defaulted.
var affiliationFilterTokens = map[string]string{
	"CIDU":         "colorado_independent_drivers_united",
	"RDU":          "rideshare_drivers_united",
	"DU":           "drivers_union",
	"CDU":          "connecticut_drivers_united",
	"DDA":          "drivers_demand_action",
	"Unaffiliated": Unaffiliated,
}

// ValidAffiliationFilter reports whether value is an accepted affiliation
// query parameter. Empty means All.
func ValidAffiliationFilter(value string) bool {
	if value == "" || value == AffiliationAll {
		return true
	}
	_, ok := affiliationFilterTokens[value]
	return ok
}

// canonicalFilter maps the HTTP filter value to a canonical affiliation
// token; "" means no filtering.
func canonicalFilter(value string) (string, error) {
	if value == "" || value == AffiliationAll {
		return "", nil
	}
	token, ok := affiliationFilterTokens[value]
	if !ok {
		return "", fmt.Errorf("%w: %q", utils.ErrorInvalidAffiliation, value)
	}
	return token, nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// snakeToken lowercases a label and collapses every non-alphanumeric run to a
// single underscore.
func snakeToken(s string) string {
	t := nonAlnum.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(t, "_")
}

// cleanAffiliations normalizes the raw affiliation list of one account.
// Entries are either plain strings or objects with a "name" field; nil
// entries become "unaffiliated"; anything else is skipped.
func cleanAffiliations(raw []any) []string {
	cleaned := make([]string, 0, len(raw))
	for _, entry := range raw {
		var label string
		switch v := entry.(type) {
		case nil:
			cleaned = append(cleaned, Unaffiliated)
			continue
		case string:
			label = v
		case map[string]any:
			name, _ := v["name"].(string)
			if name == "" {
				continue
			}
			label = name
		default:
			continue
		}
		if canonical, ok := affiliationAliases[label]; ok {
			label = canonical
		}
		token := snakeToken(label)
		if token == "" {
			token = Unaffiliated
		}
		cleaned = append(cleaned, token)
	}
	return cleaned
}

// rawAffiliations pulls the affiliation list out of one raw metadata
// document. Missing or non-object documents yield an empty list.
func rawAffiliations(doc json.RawMessage) []any {
	if len(doc) == 0 {
		return nil
	}
	var meta map[string]any
	if err := json.Unmarshal(doc, &meta); err != nil {
		return nil
	}
	list, _ := meta["affiliation"].([]any)
	return list
}

// LoadAffiliations builds the account -> affiliation lookup from the raw
// user metadata table in one pass. Accounts with multiple affiliations keep
// only the first cleaned entry; the sign-up form collects a single
// organization, so extra entries are legacy noise.
func (s *Service) LoadAffiliations(ctx context.Context) (map[string]string, error) {
	rows, err := s.store.FetchUserMetaData(ctx)
	if err != nil {
		return nil, err
	}
	affiliations := make(map[string]string, len(rows))
	for _, row := range rows {
		cleaned := cleanAffiliations(rawAffiliations(row.RawUserMetaData))
		if len(cleaned) > 0 {
			affiliations[row.ArgyleAccount] = cleaned[0]
		} else {
			affiliations[row.ArgyleAccount] = Unaffiliated
		}
	}
	return affiliations, nil
}

type AffiliationEntry struct {
	ArgyleAccount      string `json:"argyle_account"`
	CleanedAffiliation string `json:"cleaned_affiliation"`
}

// Affiliations returns one row per account, sorted by account for stable
// output.
func (s *Service) Affiliations(ctx context.Context) ([]AffiliationEntry, error) {
	affiliations, err := s.LoadAffiliations(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]AffiliationEntry, 0, len(affiliations))
	for account, affiliation := range affiliations {
		entries = append(entries, AffiliationEntry{ArgyleAccount: account, CleanedAffiliation: affiliation})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ArgyleAccount < entries[j].ArgyleAccount
	})
	return entries, nil
}
