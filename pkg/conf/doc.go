/*
Package conf wraps kingpin to provide:
- flags that can be given on the command line or through FIOBENCH_ prefixed environment variables,
- typed flags (string, int, bool, duration, string slice, existing file),
- registration of whole config structs through struct tags (see Process),
- dumping of the current configuration as a sourceable env file,
- the predefined log level flag (logrus integration).

ParseEnv reads only the environment and may be called repeatedly.
ParseFlags reads both; on --help it prints usage and exits.
*/
package conf
