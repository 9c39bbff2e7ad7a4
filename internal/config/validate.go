package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything a UI
// needs to show the operator before saving.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Email.SubjectAny = trimList(out.Email.SubjectAny)

	// ---- Validation rules ----

	if out.Discovery.MaxTargetsPerRun < 0 {
		res.addErr("discovery.max_targets_per_run must be >= 0")
	}
	if out.Discovery.MaxRowsPerTarget < 0 {
		res.addErr("discovery.max_rows_per_target must be >= 0")
	}
	if out.Discovery.MaxRowsPerTarget > 10 {
		res.addWarn("discovery.max_rows_per_target is high (%d); more rows per target means a louder traffic signature.", out.Discovery.MaxRowsPerTarget)
	}
	if out.Discovery.MinDelaySeconds < 0 || out.Discovery.MaxDelaySeconds < 0 {
		res.addErr("discovery delay bounds must be >= 0")
	}
	if out.Discovery.MaxDelaySeconds > 0 && out.Discovery.MinDelaySeconds > out.Discovery.MaxDelaySeconds {
		res.addErr("discovery.min_delay_seconds must be <= discovery.max_delay_seconds")
	}
	if out.Discovery.MaxDelaySeconds > 0 && out.Discovery.MaxDelaySeconds < 1 {
		res.addWarn("discovery.max_delay_seconds under 1s looks automated; consider raising it.")
	}

	if out.Apollo.DailyCap < 0 {
		res.addErr("apollo.daily_cap must be >= 0")
	}

	// identities: enumerated, small fixed count
	if len(out.LinkedIn.Identities) > 3 {
		res.addErr("linkedin.identities supports at most 3 accounts")
	}
	for i, id := range out.LinkedIn.Identities {
		if strings.TrimSpace(id.Email) == "" {
			res.addErr("linkedin.identities[%d].email is required", i)
		}
		if id.DailyCap <= 0 {
			res.addErr("linkedin.identities[%d].daily_cap must be > 0", i)
		} else if id.DailyCap > 25 {
			res.addWarn("linkedin.identities[%d].daily_cap of %d is risky; accounts above ~10 searches/day get flagged.", i, id.DailyCap)
		}
	}

	// email ingestion fields if enabled (password lives in the keychain)
	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			res.addErr("email.mailbox is required when email.enabled=true")
		}
		if len(out.Email.SubjectAny) == 0 {
			res.addWarn("email.subject_any is empty; ingestion may find nothing.")
		}
	}

	return out, res
}
