package invoice

import "invoicepro/internal/core/apperror"

func checkVersion(inv *Invoice, expected int) error {
	if expected != 0 && inv.Version != expected {
		return apperror.NewConcurrentModification(EntityName, inv.ID.String()).
			WithDetail("expected_version", expected).
			WithDetail("actual_version", inv.Version)
	}
	return nil
}

func invalidDelete(inv *Invoice) error {
	return apperror.NewInvalidTransition(EntityName, "delete", inv.Status)
}
