// Package severity trains and serves the emergency severity classifier.
//
// Training turns a labeled situation table into a [Model]:
//
//  1. Labels are encoded to integers in severity rank order ([LabelEncoder]).
//  2. The table is split 80/20, stratified on the label ([StratifiedSplit]).
//  3. Categorical columns are one-hot expanded and the resulting column order
//     is frozen in a [Schema]; numeric columns pass through unchanged.
//  4. A [Classifier] (by default a 200-tree [RandomForest]) is fit on the
//     training partition and evaluated on the held-out partition ([Report]).
//
// Every random choice derives from one seed, so identical (table, options)
// inputs produce identical models and identical reports.
//
// Prediction re-expands a situation and reindexes it to the frozen schema,
// zero-filling any indicator column the input does not touch. Categorical
// values outside their enumeration are reported as
// [domain.UnknownCategoryError]; by default the model logs them and scores
// the remaining features, in strict mode it refuses the input.
//
// A [Service] owns the table and the current model for a process. Retraining
// builds a complete new model and swaps it in atomically; concurrent
// predictions see either the old or the new model, never a mix.
package severity
