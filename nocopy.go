package gpuenc

// noCopy makes `go vet` complain about copies of the structure that embeds it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
