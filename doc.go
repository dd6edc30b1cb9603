// Package worthy tracks personal net worth across heterogeneous holdings
// (currencies, cryptocurrencies, stocks) held at different data sources,
// expresses them all in one reference currency, and projects a financial
// independence timeline.
//
// The core functionalities include:
//   - Common-Currency Valuation: a conversion graph built from a sparse,
//     possibly redundant set of pairwise exchange rates, solved with a
//     multiplicative Bellman-Ford variant into a best-effort conversion
//     factor from every known denomination into a chosen base currency.
//   - Financial-Independence Projection: closed-form continuous-compounding
//     maths answering how long current assets would last under a target
//     spend, and how long until a target reserve is accumulated under the
//     current savings rate.
//   - Source and Converter Fan-Out: brokerage sources (Interactive Brokers
//     Flex Queries, hardcoded holdings) and exchange-rate providers (Fixer,
//     CurrencyLayer, AlphaVantage) normalized into one flat asset and rate
//     snapshot.
//   - Data Persistence: dated JSON snapshots of every run, replayable
//     without network access and exportable to CSV.
//
// This package serves as the foundational logic for the `wt` command-line
// tool. All valuation and projection operations are pure computations over
// immutable inputs; they hold no state across calls and are safe for
// concurrent callers.
package worthy
