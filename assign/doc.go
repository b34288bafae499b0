// Package assign places ground users on satellites and picks a color for
// each placement.
//
// The solver is a greedy, order-sensitive matching: users with the fewest
// visible satellites go first, each takes the first satellite (in input
// order) that still has capacity and a color whose current roster is at
// least the separation threshold away from it, and earlier placements are
// never revisited. Users that cannot be placed are absent from the result.
//
// Example:
//
//	res, err := assign.Solve(ctx, users, sats,
//	    assign.WithConfig(assign.DefaultConfig()),
//	    assign.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	for id, p := range res.Assignments {
//	    fmt.Println(id, p.Satellite, p.Color)
//	}
package assign
