package districts

// ResolveFeature maps a clicked polygon to its result record: feature id ->
// unit code (boundary index), normalize, then (code, chamber) -> record.
// Any miss, including a boundary row with no unit code, is ErrNotFound.
func ResolveFeature(boundaries BoundaryIndex, results ResultIndex, featureID FeatureID, chamber Chamber) (ResultRecord, error) {
	code, ok := boundaries.Lookup(chamber, featureID)
	if !ok || code == "" {
		return ResultRecord{}, ErrNotFound
	}
	r, ok := results.Lookup(NormalizeUnitCode(code), chamber)
	if !ok {
		return ResultRecord{}, ErrNotFound
	}
	return r, nil
}
