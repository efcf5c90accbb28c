package rbac

// Simple default policy. Teaching staff (ta/professor) share the grading
// surface; admin additionally manages accounts and impersonation.
var RolePermissions = map[string][]string{
	"student": {
		"assignment:view",
		"submission:create",
		"submission:view-own",
		"grades:view-own",
		"profile:update",
	},
	"ta": {
		"assignment:view",
		"assignment:create",
		"assignment:update",
		"assignment:delete",
		"submission:view-all",
		"submission:grade",
		"submission:return",
		"submission:ai-grade",
		"profile:update",
	},
	"professor": {
		"assignment:view",
		"assignment:create",
		"assignment:update",
		"assignment:delete",
		"submission:view-all",
		"submission:grade",
		"submission:return",
		"submission:ai-grade",
		"profile:update",
	},
	"admin": {
		"*", // everything, including users:* and impersonate
	},
}

// ValidRoles is the closed set accepted by role-change requests.
var ValidRoles = []string{"student", "ta", "professor", "admin"}

func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to teaching staff.
func IsStaff(role string) bool {
	return role == "ta" || role == "professor" || role == "admin"
}
