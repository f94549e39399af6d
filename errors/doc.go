/*
Package errors provides the error taxonomy for the modelstore library.

Three families of errors exist:

  - Configuration errors: programmer mistakes that surface at construction time
    (missing attribute name, unknown or duplicate registry type, request without proxy).
    They all match ErrConfiguration.
  - Storage errors: failures a proxy reports for a request. They travel from the
    request to its batch and on to the operation's fail callbacks.
  - Cancellation: ErrAborted, returned only by Operation.Wait. It is never passed to
    fail callbacks.

Conversion of attribute values never produces errors; bad input resolves to nil or a
type default instead.

Usage:

	attr, err := attribute.DefaultRegistry.Create(attribute.Config{Name: "age", Type: "int"})
	if err != nil {
	    if errors.IsUnknownType(err) {
	        // the type was never registered
	    }
	    return err
	}

	if err := op.Wait(ctx); err != nil {
	    if errors.IsAborted(err) {
	        return nil
	    }
	    if errors.IsNotFound(err) {
	        return fmt.Errorf("user %s does not exist", id)
	    }
	    return err
	}

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
