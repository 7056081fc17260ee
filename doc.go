package readstata13

/*

Package readstata13 reads and writes binary datasets in the Stata dta
file format.  All historical dta releases from 102 through 118 are
supported, covering both the positional layouts used up to Stata 12
(releases 102-115) and the tag-framed layouts introduced with Stata 13
(releases 117 and 118).  Technical information about the file format
can be found here: http://www.stata.com/help.cgi?dta

The Read method of a Reader decodes an entire file into a Dataset: the
variable schema, the data matrix with per-cell missing-value handling,
value-label tables, characteristics records, and (for releases 117+)
the long-string pool.  A Writer encodes a Dataset back to any supported
release, refusing datasets with a column type that the target release
cannot represent.  Releases 102-104 carry no timestamp, characteristics
or value labels; those parts of a Dataset are dropped when writing them.

Numeric cells use Stata's reserved sentinel ranges to indicate missing
values.  By default the reader maps such cells to a missing mask on
each column; setting PreserveSentinel keeps the raw values instead.

*/
