package filter

// connectives maps each connective key to the operator joining its children.
var connectives = map[string]JoinOperator{
	KeyAll: JoinAnd,
	KeyAny: JoinOr,
	KeyNot: JoinAnd,
}

func isConnective(key string) bool {
	_, ok := connectives[key]
	return ok
}
