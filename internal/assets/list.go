package assets

import "context"

// ListAll drains the bucket listing into a single slice of keys. The first
// failed page fails the whole call; no partial listing is ever returned.
func (s *Store) ListAll(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	names := make([]string, 0)
	for obj := range s.objects.ListObjects(ctx, s.bucket) {
		if obj.Err != nil {
			return nil, Translate("list", "", obj.Err)
		}
		names = append(names, obj.Key)
	}

	// A listing cut short by cancellation closes the channel without an
	// error entry.
	if err := ctx.Err(); err != nil {
		return nil, Internal("list", "", err)
	}

	return names, nil
}
