package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/syntax"
)

const (
	asmLoop = "LOOP DATA 1\n JMP LOOP\n"

	asmProgram = `* clear the screen
START LI   R0,>0000
      LI   R1,SPACE
!     BL   @VSBW
      INC  R0
      CI   R0,768
      JLT  -!
      JMP  DONE
SPACE DATA >2000
DONE  B    *R11
`

	gplProgram = `LOOP  ST   >20,V@SCREEN
      DCEQ >FFFF,@COUNT
      BR   G@LOOP
      RTN
COUNT DATA 0
`

	xbProgram = `10 DEF F(X)=X*2
20 A$="HI" :: N=1
30 PRINT F(3);A$;SEG$(A$,1,1)
40 CALL DRAW(A$)
50 IF N>0 THEN 70 ELSE GOSUB 100
60 SUB DRAW(S$)
70 PRINT S$ :: N=N+1
80 SUBEND
90 GOTO 50
100 RETURN
`
)

func load(t *testing.T, name, src string) (*syntax.Tree, *dialect.Rules, *Index) {
	t.Helper()
	rules, ok := dialect.Lookup(name)
	require.True(t, ok, name)
	tr := rules.Parse("test."+name, []byte(src))
	require.Equal(t, src, tr.String())
	return tr, rules, Build(tr, rules)
}

// siteNamed returns the nth site (0-based) called name with the given role.
func siteNamed(t *testing.T, idx *Index, name string, role dialect.Role, nth int) Site {
	t.Helper()
	for _, s := range idx.Sites() {
		if s.Name != name || s.Role != role {
			continue
		}
		if nth == 0 {
			return s
		}
		nth--
	}
	require.Failf(t, "site not found", "%s %s", role, name)
	return Site{}
}

// findKind returns the first node of kind in source order.
func findKind(tr *syntax.Tree, kind syntax.Kind) syntax.NodeID {
	found := syntax.NoNode
	tr.Walk(func(id syntax.NodeID) bool {
		if !found.IsValid() && tr.Kind(id) == kind {
			found = id
		}
		return !found.IsValid()
	})
	return found
}
