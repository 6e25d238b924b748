// Package errors provides the structured error taxonomy shared by the
// submission pipeline and the bot.
//
// Example usage:
//
//	if err := store.Put(ctx, rec); err != nil {
//	    return errors.StorageError("put", err)
//	}
//
//	if errors.IsCode(err, errors.ErrCodeStorage) {
//	    // respond 500
//	}
package errors
