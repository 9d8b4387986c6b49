package session

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

var parser = jwt.NewParser()

// DecodeClaims decodes the payload segment of token without verifying its
// signature. Malformed input yields empty claims and ok=false; it never
// returns an error. Each claim is decoded independently, so one badly typed
// claim does not hide the others.
func DecodeClaims(token string) (claims domain.TokenClaims, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.TokenClaims{}, false
	}

	m := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, m); err != nil {
		return domain.TokenClaims{}, false
	}

	if exp, err := m.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	claims.Subject, _ = m.GetSubject()

	claimAs(m, "userId", &claims.UserID)
	if claims.UserID == "" && claims.Subject != "" {
		claims.UserID = domain.ID(claims.Subject)
	}
	claimAs(m, "email", &claims.Email)
	claimAs(m, "name", &claims.Name)
	claimAs(m, "picture", &claims.Picture)

	if !claimAs(m, "systemRole", &claims.SystemRole) {
		claimAs(m, "role", &claims.SystemRole)
	}
	claims.SystemRole = domain.SystemRole(strings.ToUpper(string(claims.SystemRole)))
	claims.Roles = decodeRoles(m["roles"])
	claims.Permissions = decodePermissions(m["permissions"])

	var projects []domain.ProjectMembership
	if claimAs(m, "projects", &projects) {
		claims.Projects = domain.DedupeMemberships(projects)
	}

	return claims, true
}

// claimAs re-decodes a single claim into target. It reports false and leaves
// target untouched when the claim is absent or has the wrong shape.
func claimAs(m jwt.MapClaims, key string, target any) bool {
	raw, ok := m[key]
	if !ok || raw == nil {
		return false
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, target) == nil
}

// decodeRoles accepts either a list of role names or a single
// comma-separated string.
func decodeRoles(raw any) []string {
	switch v := raw.(type) {
	case string:
		var out []string
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				out = append(out, r)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// decodePermissions accepts structured permissions or bare permission names.
func decodePermissions(raw any) []domain.Permission {
	if raw == nil {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var perms []domain.Permission
	if err := json.Unmarshal(b, &perms); err == nil {
		return perms
	}
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil
	}
	perms = make([]domain.Permission, 0, len(names))
	for _, n := range names {
		perms = append(perms, domain.Permission{Name: n})
	}
	return perms
}
