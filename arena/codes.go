package arena

import (
	"math/rand"
	"sync"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 6

// CodeGen produces human-shareable join codes and keeps them unique until
// disposed.
type CodeGen struct {
	inUse  map[string]struct{}
	locker sync.Mutex
}

func NewCodeGen() *CodeGen {
	return &CodeGen{inUse: make(map[string]struct{})}
}

func (g *CodeGen) Generate() string {
	g.locker.Lock()
	defer g.locker.Unlock()
	for {
		code := randomCode()
		if _, taken := g.inUse[code]; taken {
			continue
		}
		g.inUse[code] = struct{}{}
		return code
	}
}

func (g *CodeGen) Dispose(code string) {
	g.locker.Lock()
	defer g.locker.Unlock()
	delete(g.inUse, code)
}

func randomCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(buf)
}
