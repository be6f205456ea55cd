package e2e_test

import (
	"fmt"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
)

// Every participant sleeps in its setup step so all of them register
// before the first one signals ready.
const setupDelay = "sleep 1"

var _ = Describe("join", func() {
	var (
		stateDir  string
		calls     string
		stateFile string
	)

	BeforeEach(func() {
		stateDir = GinkgoT().TempDir()
		calls = filepath.Join(stateDir, "calls")
		stateFile = filepath.Join(stateDir, "db.shared")
	})

	joinAll := func(n int, extra []string, action string) []*gexec.Session {
		sessions := make([]*gexec.Session, n)
		for i := range sessions {
			args := append([]string{"join", "db", "--id", fmt.Sprintf("w%d", i), "--setup", setupDelay}, extra...)
			args = append(args, "--", "/bin/sh", "-c", action)
			sessions[i] = rendezvous(stateDir, args...)
		}
		return sessions
	}

	It("runs the action exactly once across processes", func() {
		action := fmt.Sprintf(`echo "$RENDEZVOUS_WATCHER_ID" >> %s`, calls)
		sessions := joinAll(3, nil, action)

		for _, s := range sessions {
			Eventually(s, processTimeout).Should(gexec.Exit(0))
			Expect(s.Out).To(gbytes.Say("db done"))
		}

		Expect(callLines(calls)).To(HaveLen(1))
		Expect(stateFile).NotTo(BeAnExistingFile())
	})

	It("lets a follower retry a recoverable action", func() {
		marker := filepath.Join(stateDir, "attempted")
		action := fmt.Sprintf(
			`if [ -e %[1]s ]; then echo "ok $RENDEZVOUS_RECOVERING" >> %[2]s; else touch %[1]s; echo fail >> %[2]s; exit 1; fi`,
			marker, calls)
		sessions := joinAll(2, []string{"--recoverable"}, action)

		for _, s := range sessions {
			Eventually(s, processTimeout).Should(gexec.Exit(0))
		}

		Expect(callLines(calls)).To(Equal([]string{"fail", "ok true"}))
		Eventually(stateFile, processTimeout).ShouldNot(BeAnExistingFile())
	})

	It("fails every participant when the leader's action fails", func() {
		action := fmt.Sprintf(`echo attempt >> %s; exit 2`, calls)
		sessions := joinAll(2, nil, action)

		for _, s := range sessions {
			Eventually(s, processTimeout).Should(gexec.Exit())
			Expect(s.ExitCode()).NotTo(Equal(0))
		}

		Expect(callLines(calls)).To(HaveLen(1))
		Expect(stateFile).To(BeAnExistingFile())

		inspect := rendezvous(stateDir, "inspect", "db", "--json")
		Eventually(inspect, processTimeout).Should(gexec.Exit(0))
		Expect(inspect.Out).To(gbytes.Say(`"main_status": "error"`))

		clean := rendezvous(stateDir, "clean", "db")
		Eventually(clean, processTimeout).Should(gexec.Exit(0))
		Expect(stateFile).NotTo(BeAnExistingFile())
	})

	It("reports the coordinator's failure through the exit code", func() {
		s := rendezvous(stateDir, "join", "a/b", "--", "/bin/true")
		Eventually(s, processTimeout).Should(gexec.Exit(1))
		Expect(s.Err).To(gbytes.Say("path separator"))
	})
})
