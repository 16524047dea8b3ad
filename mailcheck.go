// Mailcheck evaluates the email-authentication posture of a domain.
//
// Four tests are available, each producing a Result with structured data, a
// score between 0 and 100 and remediation recommendations:
//
//   - dmarc: the DMARC policy at _dmarc.<domain>
//   - spf: the SPF record at the domain apex
//   - dkim: DKIM keys under commonly used selectors
//   - mail_server: MX records and TCP reachability of the primary exchanger
//
// # Checker
//
// Create a checker from a configuration and run a single test:
//
//	checker, err := mailcheck.New(mailcheck.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := checker.Check(ctx, mailcheck.TestSPF, "example.com")
//	if err != nil {
//	    // result holds the failure result
//	}
//	fmt.Println(result.Score, result.Recommendations)
//
// DNS and network failures are part of a result, with score 0 or 30. Check
// only returns an error for failures inside an evaluation, including panics,
// in which case the result is the generic failure result.
//
// Dispatch accepts the test type as a string, as given on a command line:
//
//	v, err := checker.Dispatch(ctx, "DMARC", "example.com")
//
// # Sessions
//
// A session runs several tests against one domain and computes an overall
// score, the rounded mean of the scores of completed tests:
//
//	session, err := checker.RunSession(ctx, "example.com", mailcheck.AllTestTypes, func(p mailcheck.Progress) {
//	    log.Printf("%d/%d %s", p.CompletedTests, p.TotalTests, p.CurrentTest)
//	})
//
// # Configuration
//
// Configuration files are in sconf format:
//
//	config, err := mailcheck.LoadConfig("mailcheck.conf")
//
// # Serialization
//
// Results, sessions and error objects are written as JSON or MessagePack,
// with the same keys:
//
//	err := mailcheck.Encode(os.Stdout, mailcheck.FormatMsgpack, result)
package mailcheck
