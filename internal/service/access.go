package service

import "clouddrive/internal/domain"

// authorize is the single access-control rule of the system. Absent
// entities, ownerless legacy rows and other principals' entities are all
// reported as not found, so a non-owner can never confirm that a resource
// exists.
func authorize(found bool, owner string, p domain.Principal, notFoundMessage string) error {
	if !found {
		return domain.NotFoundError(notFoundMessage)
	}
	if p.IsAdmin {
		return nil
	}
	if owner == "" || owner != p.Username {
		return domain.NotFoundError(notFoundMessage)
	}
	return nil
}

func authorizeFolder(folder *domain.Folder, p domain.Principal, notFoundMessage string) error {
	if folder == nil {
		return domain.NotFoundError(notFoundMessage)
	}
	return authorize(true, folder.Owner, p, notFoundMessage)
}

func authorizeFile(file *domain.File, p domain.Principal, notFoundMessage string) error {
	if file == nil {
		return domain.NotFoundError(notFoundMessage)
	}
	return authorize(true, file.Owner, p, notFoundMessage)
}
