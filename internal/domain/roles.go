package domain

// Role is the single authorization axis of the platform. Permissions are
// resolved from the role exactly once, here, so route files never compare
// role strings directly.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEmployer  Role = "employer"
	RoleApplicant Role = "applicant"
)

type Permission string

const (
	PermManageUsers     Permission = "manage_users"
	PermManageJobs      Permission = "manage_jobs"
	PermViewAnalytics   Permission = "view_analytics"
	PermModerateContent Permission = "moderate_content"

	PermPostJobs         Permission = "post_jobs"
	PermEditOwnJobs      Permission = "edit_own_jobs"
	PermDeleteOwnJobs    Permission = "delete_own_jobs"
	PermViewApplications Permission = "view_applications"

	PermViewJobs         Permission = "view_jobs"
	PermApplyJobs        Permission = "apply_jobs"
	PermManageOwnProfile Permission = "manage_own_profile"
	PermBookmarkJobs     Permission = "bookmark_jobs"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermManageUsers, PermManageJobs, PermViewAnalytics, PermModerateContent,
		PermViewJobs,
	},
	RoleEmployer: {
		PermPostJobs, PermEditOwnJobs, PermDeleteOwnJobs, PermViewApplications,
		PermViewJobs,
	},
	RoleApplicant: {
		PermViewJobs, PermApplyJobs, PermManageOwnProfile, PermBookmarkJobs,
	},
}

func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Registrable reports whether the role may be self-assigned at registration.
// Admin accounts are only created through seeding or promotion.
func (r Role) Registrable() bool {
	return r == RoleApplicant || r == RoleEmployer
}

func (r Role) Permissions() []Permission {
	perms := rolePermissions[r]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

func (r Role) Can(p Permission) bool {
	for _, have := range rolePermissions[r] {
		if have == p {
			return true
		}
	}
	return false
}
