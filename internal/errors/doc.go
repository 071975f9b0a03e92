// Package errors provides structured errors for the encounter API.
//
// Errors carry a code, a message, and optional metadata. Codes map onto
// HTTP status codes at the handler layer via Code.HTTPStatus.
//
// Creating errors:
//
//	err := errors.NotFound("encounter not found")
//	err := errors.InvalidArgumentf("party level %d out of range", level)
//
// Wrapping errors:
//
//	if err := repo.Get(ctx, input); err != nil {
//	    return errors.Wrap(err, "failed to load session")
//	}
//
// Checking errors:
//
//	if errors.IsNotFound(err) {
//	    // no session in progress
//	}
//
// Validation errors accumulate field-level detail:
//
//	vb := errors.NewValidationBuilder()
//	errors.ValidateRange("partyLevel", input.PartyLevel, 1, 20, vb)
//	if err := vb.Build(); err != nil {
//	    return err
//	}
//
// Layer guidelines: repositories return NotFound/AlreadyExists with IDs in
// metadata and wrap storage errors; orchestrators return InvalidArgument for
// bad input and FailedPrecondition for state-machine violations; handlers
// translate codes to HTTP statuses.
package errors
