package trace

// PreprocessAccess is an unforgeable capability: its single method is
// unexported, so only types defined in this package can implement it, and
// only this package's own constructor can produce a value of it. The
// unexported LocalTrace methods that accept one as their first parameter are
// therefore called only from code in this package — in practice, from
// VerifyCalltree and Preprocess — realizing the "privileged friends"
// described in spec.md §4.4/§9 without an actual friend-class mechanism.
type PreprocessAccess interface {
	sealedPreprocessAccess()
}

type preprocessAccess struct{}

func (preprocessAccess) sealedPreprocessAccess() {}

func grantPreprocessAccess() PreprocessAccess {
	return preprocessAccess{}
}
